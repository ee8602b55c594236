// common.go
//
// A page and snippet builder service with versioned content and multi-database support
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of pagesdb.
// pagesdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// pagesdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with pagesdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/pagesdb/internal/types"
	"github.com/localnerve/pagesdb/internal/utils"
	"github.com/rs/zerolog"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseBody decodes the request body into dst and validates its struct tags
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("Invalid input: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

// validationMessage flattens validator errors into one readable line
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// serviceError maps a service error to its response by class
func serviceError(c *fiber.Ctx, err error, errorType string) error {
	var classErr *types.ClassError
	message := err.Error()
	if errors.As(err, &classErr) {
		message = classErr.Message
	}

	switch {
	case errors.Is(err, types.ErrNotFound):
		return utils.NotFoundResponse(c, message)
	case errors.Is(err, types.ErrConflict):
		return utils.ConflictResponse(c, message)
	case errors.Is(err, types.ErrUpstream):
		return utils.ErrorResponse(c, message, fiber.StatusBadGateway, errorType)
	}

	zerolog.Ctx(c.UserContext()).Error().Err(err).Str("type", errorType).Msg("Request failed")
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

func unauthorized(c *fiber.Ctx, errorType string) error {
	return utils.ErrorResponse(c, "Authentication required", fiber.StatusUnauthorized, errorType)
}
