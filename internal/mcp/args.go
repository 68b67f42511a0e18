package mcp

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// ArgumentGetter is satisfied by mcp.CallToolRequest.
type ArgumentGetter interface {
	GetArguments() map[string]interface{}
}

// AssembleRequest holds the optional overrides accepted by
// ctxpack_assemble. Nil fields keep the configured value.
type AssembleRequest struct {
	Budget        *int    `json:"budget"`
	WarnThreshold *int    `json:"warn_threshold"`
	WholeRepo     *bool   `json:"whole_repo"`
	References    *bool   `json:"references"`
	Diff          *string `json:"diff"`
	Regions       *bool   `json:"regions"`
	Report        bool    `json:"report"`
}

// bindArguments decodes request arguments into target. Clients often send
// every parameter as a string, so "10" and "true" are coerced to the
// field's type.
func bindArguments[T any](request ArgumentGetter, target *T) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(request.GetArguments()); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
