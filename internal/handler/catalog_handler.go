package handler

import (
	"errors"

	"go-stockcount-ws/internal/model"
	"go-stockcount-ws/internal/repository"
	"go-stockcount-ws/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CatalogHandler serves the counting setup surface: items, locations and
// container types. Plain CRUD glue; the counting pipeline only reads these.
type CatalogHandler struct {
	itemRepo      repository.ItemRepository
	locationRepo  repository.LocationRepository
	containerRepo repository.ContainerTypeRepository
}

func NewCatalogHandler(itemRepo repository.ItemRepository, locationRepo repository.LocationRepository, containerRepo repository.ContainerTypeRepository) *CatalogHandler {
	return &CatalogHandler{
		itemRepo:      itemRepo,
		locationRepo:  locationRepo,
		containerRepo: containerRepo,
	}
}

func (h *CatalogHandler) GetItems(c *fiber.Ctx) error {
	items, err := h.itemRepo.FindAll(getTenantID(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(items)
}

func (h *CatalogHandler) CreateItem(c *fiber.Ctx) error {
	var item model.InventoryItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if !item.Workflow.Valid() {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid counting workflow"})
	}
	if errs := validator.ValidateStruct(&item); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed: " + errs[0].FailedField})
	}

	item.TenantID = getTenantID(c)
	item.IsActive = true
	item.CreatedBy = getUserID(c).String()
	item.UpdatedBy = item.CreatedBy

	if err := h.itemRepo.Create(&item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(409).JSON(fiber.Map{"error": "SKU already exists"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Item created", "data": item})
}

func (h *CatalogHandler) GetLocations(c *fiber.Ctx) error {
	locations, err := h.locationRepo.FindAll(getTenantID(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(locations)
}

func (h *CatalogHandler) CreateLocation(c *fiber.Ctx) error {
	var loc model.Location
	if err := c.BodyParser(&loc); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if loc.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	loc.TenantID = getTenantID(c)
	loc.IsActive = true
	loc.CreatedBy = getUserID(c).String()
	loc.UpdatedBy = loc.CreatedBy

	if err := h.locationRepo.Create(&loc); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Location created", "data": loc})
}

func (h *CatalogHandler) GetContainerTypes(c *fiber.Ctx) error {
	types, err := h.containerRepo.FindAll(getTenantID(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(types)
}

func (h *CatalogHandler) CreateContainerType(c *fiber.Ctx) error {
	var ct model.ContainerType
	if err := c.BodyParser(&ct); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(&ct); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed: " + errs[0].FailedField})
	}

	ct.TenantID = getTenantID(c)
	ct.CreatedBy = getUserID(c).String()
	ct.UpdatedBy = ct.CreatedBy

	if err := h.containerRepo.Create(&ct); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Container type created", "data": ct})
}
