package mcp

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mvp-joe/typelink/internal/errors"
)

// bindArguments decodes tool arguments into target using its json tags.
// Clients sometimes send every value as a string ("true", "10"), so decoding
// is weakly typed.
func bindArguments[T any](request mcp.CallToolRequest, target *T) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create argument decoder")
	}
	if err := decoder.Decode(request.GetArguments()); err != nil {
		return errors.Wrap(err, "invalid arguments")
	}
	return nil
}
