package entities

// BookCSVHeader is the column layout shared by CSV export and import.
var BookCSVHeader = []string{
	"ID", "Name", "Author", "Category", "Ranking", "HasBook", "Status",
	"StartDate", "EndDate", "CreatedAt", "TotalReadingDays", "CurrentReadingStartDate",
}

// CSVDateLayout formats dates in CSV files. Times are rendered in local time.
const CSVDateLayout = "2006-01-02"
