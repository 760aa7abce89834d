package recipe

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"recipehub/pkg/apperr"
	"recipehub/pkg/logger"
	"recipehub/pkg/models"
)

// Service is what the HTTP layer needs; *Aggregator implements it.
type Service interface {
	ListSortedByName(ctx context.Context) ([]models.Recipe, error)
	FindByName(ctx context.Context, query string) ([]models.Recipe, error)
	FindByID(ctx context.Context, id int64) ([]models.Recipe, error)
	CreateRecipeWithDiets(ctx context.Context, in models.NewRecipe, dietNames []string) (*CreateResult, error)
	DeriveAndReconcileTaxonomy(ctx context.Context) ([]string, error)
}

type DietLister interface {
	List(ctx context.Context) ([]models.DietLabel, error)
}

type Handler struct {
	Service Service
	Diets   DietLister
	Log     logger.Logger
}

func NewHandler(svc Service, diets DietLister, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{Service: svc, Diets: diets, Log: log.With(logger.Component("http"))}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/recipes", h.list)        // GET /recipes?name=
	rg.GET("/recipes/:id", h.getByID) // GET /recipes/:id
	rg.POST("/recipes", h.create)     // POST /recipes
	rg.GET("/types", h.types)         // GET /types
	rg.GET("/diets", h.diets)         // GET /diets
}

func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()

	// the query is matched as given; trimming only decides whether it is set
	if name := c.Query("name"); strings.TrimSpace(name) != "" {
		matches, err := h.Service.FindByName(ctx, name)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, matches)
		return
	}

	all, err := h.Service.ListSortedByName(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		h.writeError(c, apperr.Invalid("id must be numeric"))
		return
	}

	matches, err := h.Service.FindByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (h *Handler) types(c *gin.Context) {
	labels, err := h.Service.DeriveAndReconcileTaxonomy(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

func (h *Handler) diets(c *gin.Context) {
	rows, err := h.Diets.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type createReq struct {
	Name        string     `json:"name"`
	Resume      string     `json:"resume"`
	Score       int        `json:"score"`
	HealthScore int        `json:"health_score"`
	Steps       [][]string `json:"steps"`
	Image       string     `json:"img"`
	Diets       []string   `json:"diets"`
}

type dietResultView struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperr.Invalid("invalid json"))
		return
	}

	res, err := h.Service.CreateRecipeWithDiets(c.Request.Context(), models.NewRecipe{
		Name:        req.Name,
		Resume:      req.Resume,
		Score:       req.Score,
		HealthScore: req.HealthScore,
		Steps:       req.Steps,
		Image:       req.Image,
	}, req.Diets)
	if res == nil {
		h.writeError(c, err)
		return
	}

	if err != nil {
		h.Log.Warn("recipe created with diet failures",
			logger.Int64("recipe_id", res.Recipe.ID),
			logger.Error(err),
		)
	}

	// The recipe exists even when some diets failed; report each one.
	views := make([]dietResultView, 0, len(res.Diets))
	for _, d := range res.Diets {
		v := dietResultView{Name: d.Name, OK: d.Err == nil}
		if d.Err != nil {
			v.Error = d.Err.Error()
			if code, ok := apperr.CodeOf(d.Err); ok {
				v.Code = string(code)
			}
		}
		views = append(views, v)
	}

	c.JSON(http.StatusCreated, gin.H{
		"recipe": res.Recipe,
		"diets":  views,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	code, ok := apperr.CodeOf(err)
	if !ok {
		code = "INTERNAL"
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// StatusFor maps the failure taxonomy onto HTTP.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnknownDiet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrCatalogUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
