package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brigade/internal/models"
	"brigade/internal/store"
)

type recipeRequest struct {
	Name        string              `json:"name" binding:"required"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	Servings    int                 `json:"servings" binding:"required,gt=0"`
	PrepMinutes int                 `json:"prepMinutes" binding:"gte=0"`
	CookMinutes int                 `json:"cookMinutes" binding:"gte=0"`
	Ingredients []models.Ingredient `json:"ingredients"`
	Steps       []string            `json:"steps"`
	Tags        []string            `json:"tags"`
	PhotoFileID string              `json:"photoFileId"`
}

func (r *recipeRequest) apply(recipe *models.Recipe) {
	recipe.Name = r.Name
	recipe.Category = r.Category
	recipe.Description = r.Description
	recipe.Servings = r.Servings
	recipe.PrepMinutes = r.PrepMinutes
	recipe.CookMinutes = r.CookMinutes
	recipe.Ingredients = r.Ingredients
	recipe.Steps = r.Steps
	recipe.Tags = r.Tags
	recipe.PhotoFileID = r.PhotoFileID
}

func (s *Server) listRecipes(c *gin.Context) {
	f := store.RecipeFilter{
		Category:        c.Query("category"),
		Tag:             c.Query("tag"),
		Query:           c.Query("q"),
		IncludeArchived: c.Query("archived") == "true",
	}
	recipes, err := tenantFrom(c).Store.Recipes().List(c.Request.Context(), f)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	c.JSON(http.StatusOK, recipes)
}

func (s *Server) getRecipe(c *gin.Context) {
	recipe, err := tenantFrom(c).Store.Recipes().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (s *Server) createRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := s.now().UTC()
	recipe := &models.Recipe{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	req.apply(recipe)

	if err := tenantFrom(c).Store.Recipes().Create(c.Request.Context(), recipe); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (s *Server) updateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipes := tenantFrom(c).Store.Recipes()
	recipe, err := recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	req.apply(recipe)
	recipe.UpdatedAt = s.now().UTC()

	if err := recipes.Update(c.Request.Context(), recipe); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// deleteRecipe archives by default; ?hard=true removes the document.
func (s *Server) deleteRecipe(c *gin.Context) {
	recipes := tenantFrom(c).Store.Recipes()
	var err error
	if c.Query("hard") == "true" {
		err = recipes.Delete(c.Request.Context(), c.Param("id"))
	} else {
		err = recipes.Archive(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "recipe deleted"})
}

type scaleRequest struct {
	Servings int `json:"servings" binding:"required,gt=0"`
}

// scaleRecipe returns scaled ingredient quantities without persisting.
func (s *Server) scaleRecipe(c *gin.Context) {
	var req scaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	recipe, err := tenantFrom(c).Store.Recipes().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"servings":    req.Servings,
		"ingredients": recipe.ScaledIngredients(req.Servings),
	})
}
