package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookbuddy/internal/services"
)

type CategoriesController struct {
	library *services.LibraryService
}

func NewCategoriesController(library *services.LibraryService) *CategoriesController {
	return &CategoriesController{library: library}
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// GetAllCategories handles GET /api/categories
func (cc *CategoriesController) GetAllCategories(c *gin.Context) {
	categories, err := cc.library.Categories(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": nonNil(categories)})
}

// CreateCategory handles POST /api/categories. Creating a name that already
// exists returns the stored category with 200 instead of 201.
func (cc *CategoriesController) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	category, created, err := cc.library.AddCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondServiceError(c, err, "add category")
		return
	}
	if !created {
		c.JSON(http.StatusOK, category)
		return
	}
	respondCreated(c, category)
}

// DeleteCategory handles DELETE /api/categories/:id
func (cc *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.library.DeleteCategory(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete category")
		return
	}
	respondSuccess(c, "category deleted")
}
