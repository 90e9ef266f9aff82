package generator

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"text/template"

	"devboot/internal/app/errors"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

const templatePath = "templates/devboot.yaml.tmpl"

//go:embed templates/devboot.yaml.tmpl
var templateFS embed.FS

// Options contains the values substituted into devboot.yaml
type Options struct {
	ServiceName    string
	Port           int
	Runtime        string
	MinVersion     string
	PackageManager string
}

// DefaultOptions returns sensible defaults for a node project
func DefaultOptions() Options {
	return Options{
		ServiceName:    "app",
		Port:           5000,
		Runtime:        "node",
		MinVersion:     "18.0.0",
		PackageManager: "npm",
	}
}

// Generator defines the interface for generating devboot.yaml
//
//go:generate mockgen -source=generator.go -destination=generator_mock.go -package=generator
type Generator interface {
	Generate(opts Options, force bool, dryRun bool) error
}

type generator struct {
	out io.Writer
	log logger.Logger
}

// NewGenerator creates a new generator instance
func NewGenerator(log logger.Logger) Generator {
	return &generator{
		out: os.Stdout,
		log: log,
	}
}

// Generate renders devboot.yaml from the template and checks it loads before writing
func (g *generator) Generate(opts Options, force bool, dryRun bool) error {
	if !dryRun && !force {
		if _, err := os.Stat(config.FileName); err == nil {
			return fmt.Errorf("%w: %s, use --force to overwrite", errors.ErrConfigFileExists, config.FileName)
		}
	}

	content, err := Render(opts)
	if err != nil {
		return err
	}

	if dryRun {
		_, err := g.out.Write(content)
		return err
	}

	if err := os.WriteFile(config.FileName, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	g.log.Info().Msgf("Generated %s", config.FileName)

	return nil
}

// Render executes the template and parses the result as a configuration
func Render(opts Options) ([]byte, error) {
	tmplContent, err := templateFS.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	tmpl, err := template.New(config.FileName).Option("missingkey=error").Parse(string(tmplContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, opts); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	if _, err := config.Parse(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("generated configuration is invalid: %w", err)
	}

	return buf.Bytes(), nil
}
