package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/accounts_admin/internal/admin"
	"github.com/GTDGit/accounts_admin/internal/utils"
)

// ModelRegistryHandler exposes the registered admin descriptors.
type ModelRegistryHandler struct {
	registry *admin.Registry
}

// NewModelRegistryHandler constructs a ModelRegistryHandler.
func NewModelRegistryHandler(registry *admin.Registry) *ModelRegistryHandler {
	return &ModelRegistryHandler{registry: registry}
}

type registrationView struct {
	Entity     string           `json:"entity"`
	Table      string           `json:"table"`
	Descriptor admin.Descriptor `json:"descriptor"`
	// Overlap lists declared fields that were both read-only and list-editable.
	Overlap []string `json:"overlap,omitempty"`
}

func toRegistrationView(reg admin.Registration) registrationView {
	return registrationView{
		Entity:     reg.Entity.Name,
		Table:      reg.Entity.Table,
		Descriptor: reg.Descriptor,
		Overlap:    reg.Declared.Overlap(),
	}
}

// ListModels handles GET /v1/admin/models
func (h *ModelRegistryHandler) ListModels(c *gin.Context) {
	names := h.registry.Entities()
	out := make([]registrationView, 0, len(names))
	for _, name := range names {
		reg, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		out = append(out, toRegistrationView(reg))
	}

	utils.Success(c, 200, "Models retrieved", out)
}

// GetDescriptor handles GET /v1/admin/models/:entity/descriptor
func (h *ModelRegistryHandler) GetDescriptor(c *gin.Context) {
	reg, err := h.registry.Get(c.Param("entity"))
	if err != nil {
		if errors.Is(err, admin.ErrNotRegistered) {
			utils.Error(c, 404, "ENTITY_NOT_REGISTERED", "Entity is not registered")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve descriptor")
		return
	}

	utils.Success(c, 200, "Descriptor retrieved", toRegistrationView(reg))
}
