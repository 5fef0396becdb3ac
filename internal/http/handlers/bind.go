package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/geocoder89/worldofhackaton/internal/validation"
	"github.com/gin-gonic/gin"
)

// BindJSON decodes the body into out. Field rules are checked by the identity
// workflows; this only rejects bodies that are not the right JSON shape.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
			return false
		}

		RespondBadRequest(ctx, "Invalid request body", parseBindError(err, out))
		return false
	}

	return true
}

func parseBindError(err error, out interface{}) interface{} {
	if errors.Is(err, io.EOF) {
		return gin.H{"json": "empty_body"}
	}

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		return gin.H{
			"json": "invalid_json_syntax",
		}
	}

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := jsonPathFromDotPath(baseStructType(out), unmatchedTypeError.Field)

		if field == "" {
			field = strings.TrimSpace(unmatchedTypeError.Field)
		}

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []validation.FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
				},
			},
		}
	}

	// final fallback if the error could not be deciphered
	return gin.H{"reason": err.Error()}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonPathFromDotPath maps a Go field path ("Nick") to its JSON name ("nick").
// encoding/json already reports JSON names for most fields, so unknown parts
// pass through unchanged.
func jsonPathFromDotPath(rootType reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	current := rootType
	parts := strings.Split(dotPath, ".")
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		name := part
		var next reflect.Type

		if current != nil && current.Kind() == reflect.Struct {
			if sf, ok := current.FieldByName(part); ok {
				name = jsonNameFromStructField(sf)
				next = sf.Type
			}
		}

		out = append(out, name)

		for next != nil && next.Kind() == reflect.Pointer {
			next = next.Elem()
		}
		current = next
	}

	return strings.Join(out, ".")
}

func jsonNameFromStructField(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}
