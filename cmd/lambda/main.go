package main

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/MELON-27AF/Project-5g/internal/capability"
	"github.com/MELON-27AF/Project-5g/internal/compiler"
	_ "github.com/MELON-27AF/Project-5g/internal/handler" // register handlers
	"github.com/MELON-27AF/Project-5g/internal/logger"
	"github.com/MELON-27AF/Project-5g/internal/result"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

// CompileEvent is the invocation payload (e.g. from API Gateway).
type CompileEvent struct {
	Body     string `json:"body"` // topology JSON (raw or base64 if isBase64)
	IsBase64 bool   `json:"isBase64,omitempty"`

	// Backend selects the variant to compile for; the service has no
	// emulation stack to probe. Defaults to containernet.
	Backend  string `json:"backend,omitempty"`
	Wireless bool   `json:"wireless,omitempty"`
}

// CompileResponse is returned to the client.
type CompileResponse struct {
	StatusCode int                 `json:"statusCode"`
	Success    bool                `json:"success"`
	Partial    bool                `json:"partial,omitempty"`
	Backend    string              `json:"backend,omitempty"`
	Errors     []result.Issue      `json:"errors,omitempty"`
	Warnings   []result.Issue      `json:"warnings,omitempty"`
	Images     []result.ImageEntry `json:"images,omitempty"`
	Files      map[string]string   `json:"files,omitempty"` // filename -> content (base64)
}

// APIGatewayResponse is the shape expected by API Gateway proxy
// integration (body = JSON string).
type APIGatewayResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

func backendOf(event CompileEvent) capability.Descriptor {
	switch capability.Variant(event.Backend) {
	case capability.MininetWifi:
		return capability.Describe(capability.MininetWifi, false, true)
	case capability.Mininet:
		return capability.Describe(capability.Mininet, false, false)
	default:
		return capability.Describe(capability.Containernet, true, event.Wireless)
	}
}

func handler(ctx context.Context, event CompileEvent) (APIGatewayResponse, error) {
	out := CompileResponse{StatusCode: 200}

	body := event.Body
	if event.IsBase64 {
		dec, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			out.StatusCode = 400
			out.Errors = []result.Issue{{Kind: result.KindStructural, Severity: result.SeverityError,
				Message: "invalid base64 body: " + err.Error()}}
			return wrap(out), nil
		}
		body = string(dec)
	}

	topo, err := topology.ParseJSON([]byte(body))
	if err != nil {
		out.StatusCode = 400
		out.Errors = []result.Issue{{Kind: result.KindStructural, Severity: result.SeverityError,
			Message: "invalid topology JSON: " + err.Error()}}
		return wrap(out), nil
	}

	// Render-only: no daemon to probe, so images are taken on trust and
	// the backend comes from the event.
	backend := backendOf(event)
	c := compiler.New(compiler.Options{
		Mode:        compiler.ModeRender,
		CheckImages: false,
		Backend:     &backend,
		Logger:      logger.New(logger.ParseLevel("warn")),
	})
	res, _ := c.Compile(ctx, topo)

	out.Success = res.Success
	out.Partial = res.Partial
	out.Backend = res.Backend
	out.Errors = res.Errors
	out.Warnings = res.Warnings
	out.Images = res.Images
	if res.Success && len(res.Artifacts) > 0 {
		out.Files = make(map[string]string, len(res.Artifacts))
		for name, content := range res.Artifacts {
			out.Files[name] = base64.StdEncoding.EncodeToString(content)
		}
	}
	if !res.Success {
		out.StatusCode = 422
	}
	return wrap(out), nil
}

func wrap(out CompileResponse) APIGatewayResponse {
	bodyBytes, _ := json.Marshal(out)
	return APIGatewayResponse{
		StatusCode: out.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(bodyBytes),
	}
}

func main() {
	lambda.Start(handler)
}
