package handler // handler defines http handlers

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "reflect"
    "strconv"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/kanban-board/internal/model"
    "github.com/iliyamo/kanban-board/internal/repository"
    "github.com/iliyamo/kanban-board/internal/utils"
)

// requestError is a client mistake reported verbatim with 400.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
    return &requestError{msg: fmt.Sprintf(format, args...)}
}

// Validator adapts go-playground/validator to echo.Validator.  Field names
// in messages are the JSON names clients send.
type Validator struct {
    v *validator.Validate
}

// NewValidator returns the validator installed on the echo instance.
func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" || name == "" {
            return f.Name
        }
        return name
    })
    // Nullable[string] validates as its value, or as absent when unset/null.
    v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
        if n, ok := field.Interface().(model.Nullable[string]); ok && n.Value != nil {
            return *n.Value
        }
        return nil
    }, model.Nullable[string]{})
    return &Validator{v: v}
}

// Validate implements echo.Validator.  Only the first failing field is
// reported.
func (cv *Validator) Validate(i interface{}) error {
    err := cv.v.Struct(i)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) || len(verrs) == 0 {
        return badRequest("invalid request")
    }
    return badRequest("%s", fieldMessage(verrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
    switch fe.Tag() {
    case "required":
        return fe.Field() + " is required"
    case "max":
        if fe.Kind() != reflect.String {
            return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
        }
        return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
    case "min":
        if fe.Kind() != reflect.String {
            return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
        }
        return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
    case "oneof":
        return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
    default:
        return fe.Field() + " is invalid"
    }
}

// normalizer is implemented by request bodies that trim their input before
// validation.
type normalizer interface{ normalize() }

// decode binds the JSON body into req, normalizes it and validates it.
func decode(c echo.Context, req interface{}) error {
    if err := c.Bind(req); err != nil {
        return badRequest("invalid request body")
    }
    if n, ok := req.(normalizer); ok {
        n.normalize()
    }
    return c.Validate(req)
}

// parseID reads a positive numeric path or query parameter.
func parseID(raw, name string) (uint64, error) {
    if raw == "" {
        return 0, badRequest("%s is required", name)
    }
    id, err := strconv.ParseUint(raw, 10, 64)
    if err != nil || id == 0 {
        return 0, badRequest("invalid %s", name)
    }
    return id, nil
}

// dbContext bounds the database work of one request.
func dbContext(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
    if timeout <= 0 {
        timeout = 5 * time.Second
    }
    return context.WithTimeout(c.Request().Context(), timeout)
}

// respondError translates an error into the JSON error response.  entity
// names the resource for not-found messages.  Unexpected errors are
// logged and hidden from the client.
func respondError(c echo.Context, err error, entity string) error {
    var reqErr *requestError
    switch {
    case errors.As(err, &reqErr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": reqErr.msg})
    case errors.Is(err, repository.ErrInvalid):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": detail(err, repository.ErrInvalid)})
    case errors.Is(err, repository.ErrDuplicate):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": detail(err, repository.ErrDuplicate)})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized"})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": entity + " not found"})
    default:
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
    }
}

// detail strips the sentinel prefix from a wrapped repository error.
func detail(err, sentinel error) string {
    msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
    if msg == "" {
        return sentinel.Error()
    }
    return msg
}

// HTTPErrorHandler renders framework errors (unknown routes, wrong
// methods, panics recovered upstream) in the same {"error": ...} shape as
// the handlers.
func HTTPErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    code := http.StatusInternalServerError
    msg := "internal server error"
    var he *echo.HTTPError
    if errors.As(err, &he) {
        code = he.Code
        msg = strings.ToLower(fmt.Sprint(he.Message))
    } else {
        c.Logger().Error(err)
    }
    if c.Request().Method == http.MethodHead {
        err = c.NoContent(code)
    } else {
        err = c.JSON(code, echo.Map{"error": msg})
    }
    if err != nil {
        c.Logger().Error(err)
    }
}

func deleted(c echo.Context, entity string) error {
    return c.JSON(http.StatusOK, echo.Map{"message": entity + " deleted"})
}

// hashPassword hashes plain, reporting passwords bcrypt cannot take as a
// client error.
func hashPassword(plain string, cost int) (string, error) {
    hash, err := utils.HashPassword(plain, cost)
    if errors.Is(err, bcrypt.ErrPasswordTooLong) {
        return "", badRequest("password must be at most 72 bytes")
    }
    return hash, err
}
