package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/fekuna/omnipos-product-picker/internal/apperr"
	"github.com/fekuna/omnipos-product-picker/internal/editor"
	"github.com/fekuna/omnipos-product-picker/internal/editor/dto"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type EditorHandler struct {
	uc       editor.UseCase
	validate *validator.Validate
	logger   logger.ZapLogger
}

func NewEditorHandler(uc editor.UseCase, log logger.ZapLogger) *EditorHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &EditorHandler{
		uc:       uc,
		validate: v,
		logger:   log,
	}
}

func (h *EditorHandler) RegisterRoutes(app *fiber.App) {
	lists := app.Group("/api/v1/lists")
	lists.Post("/", h.createList)
	lists.Get("/:id", h.getList)
	lists.Delete("/:id", h.deleteList)

	lists.Post("/:id/entries", h.appendEntry)
	lists.Delete("/:id/entries/:index", h.removeEntry)
	lists.Delete("/:id/entries/:index/variants/:variant", h.removeVariant)
	lists.Post("/:id/entries/:index/show-variants", h.toggleShowVariants)
	lists.Put("/:id/discount", h.setDiscount)
	lists.Post("/:id/discount-editor", h.toggleDiscountEditor)
	lists.Post("/:id/move", h.move)

	lists.Post("/:id/picker", h.openPicker)
	lists.Get("/:id/picker", h.pickerState)
	lists.Delete("/:id/picker", h.cancelPicker)
	lists.Put("/:id/picker/query", h.setQuery)
	lists.Post("/:id/picker/more", h.loadMore)
	lists.Post("/:id/picker/toggle", h.togglePickerProduct)
	lists.Post("/:id/picker/confirm", h.confirmPicker)
}

// requestError is a malformed request, rejected before reaching the use case.
type requestError struct {
	message string
	fields  fiber.Map
}

func (e *requestError) Error() string { return e.message }

// bind parses and validates the JSON body into dst.
func (h *EditorHandler) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &requestError{message: "invalid request body"}
	}
	if err := h.validate.Struct(dst); err != nil {
		fields := fiber.Map{}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				fields[fe.Field()] = messageForTag(fe.Tag(), fe.Param())
			}
		}
		return &requestError{message: "validation failed", fields: fields}
	}
	return nil
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + param
	case "gt":
		return "must be greater than " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of: " + param
	default:
		return "is invalid"
	}
}

func (h *EditorHandler) fail(c *fiber.Ctx, err error) error {
	var re *requestError
	if errors.As(err, &re) {
		body := fiber.Map{"message": re.message}
		if len(re.fields) > 0 {
			body["fields"] = re.fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}
	if ce, ok := apperr.As(err); ok {
		status := fiber.StatusBadRequest
		switch ce.Code {
		case apperr.StatusNotFound:
			status = fiber.StatusNotFound
		case apperr.StatusFailedPrecondition:
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{"message": err.Error(), "code": ce.Code.String()})
	}
	h.logger.Error("editor request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
}

func intParam(c *fiber.Ctx, name string) (int, error) {
	v, err := c.ParamsInt(name)
	if err != nil || v < 0 {
		return 0, &requestError{message: "invalid " + name}
	}
	return v, nil
}

func (h *EditorHandler) createList(c *fiber.Ctx) error {
	v, err := h.uc.CreateList(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(v)
}

func (h *EditorHandler) getList(c *fiber.Ctx) error {
	v, err := h.uc.GetList(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func (h *EditorHandler) deleteList(c *fiber.Ctx) error {
	if err := h.uc.DeleteList(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EditorHandler) appendEntry(c *fiber.Ctx) error {
	v, err := h.uc.Append(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func (h *EditorHandler) removeEntry(c *fiber.Ctx) error {
	index, err := intParam(c, "index")
	if err != nil {
		return h.fail(c, err)
	}
	v, err := h.uc.Remove(c.UserContext(), c.Params("id"), index)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func (h *EditorHandler) removeVariant(c *fiber.Ctx) error {
	index, err := intParam(c, "index")
	if err != nil {
		return h.fail(c, err)
	}
	variant, err := intParam(c, "variant")
	if err != nil {
		return h.fail(c, err)
	}
	v, err := h.uc.RemoveVariant(c.UserContext(), c.Params("id"), index, variant)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func (h *EditorHandler) toggleShowVariants(c *fiber.Ctx) error {
	index, err := intParam(c, "index")
	if err != nil {
		return h.fail(c, err)
	}
	v, err := h.uc.ToggleShowVariants(c.UserContext(), c.Params("id"), index)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func (h *EditorHandler) setDiscount(c *fiber.Ctx) error {
	input := new(dto.SetDiscountInput)
	if err := h.bind(c, input); err != nil {
		return h.fail(c, err)
	}
	v, err := h.uc.SetDiscount(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func (h *EditorHandler) toggleDiscountEditor(c *fiber.Ctx) error {
	input := new(dto.EditorInput)
	if err := h.bind(c, input); err != nil {
		return h.fail(c, err)
	}
	v, err := h.uc.ToggleDiscountEditor(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func (h *EditorHandler) move(c *fiber.Ctx) error {
	input := new(dto.MoveInput)
	if err := h.bind(c, input); err != nil {
		return h.fail(c, err)
	}
	v, err := h.uc.Move(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func (h *EditorHandler) openPicker(c *fiber.Ctx) error {
	input := new(dto.OpenPickerInput)
	if err := h.bind(c, input); err != nil {
		return h.fail(c, err)
	}
	st, err := h.uc.OpenPicker(c.UserContext(), c.Params("id"), input.Index)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (h *EditorHandler) pickerState(c *fiber.Ctx) error {
	st, err := h.uc.PickerState(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

func (h *EditorHandler) cancelPicker(c *fiber.Ctx) error {
	if err := h.uc.CancelPicker(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EditorHandler) setQuery(c *fiber.Ctx) error {
	input := new(dto.QueryInput)
	if err := h.bind(c, input); err != nil {
		return h.fail(c, err)
	}
	st, err := h.uc.SetQuery(c.UserContext(), c.Params("id"), input.Query)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

func (h *EditorHandler) loadMore(c *fiber.Ctx) error {
	st, err := h.uc.LoadMore(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

func (h *EditorHandler) togglePickerProduct(c *fiber.Ctx) error {
	input := new(dto.ToggleInput)
	if err := h.bind(c, input); err != nil {
		return h.fail(c, err)
	}
	st, err := h.uc.TogglePickerProduct(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

func (h *EditorHandler) confirmPicker(c *fiber.Ctx) error {
	v, err := h.uc.ConfirmPicker(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}
