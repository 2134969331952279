package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"voicepilot/internal/domain"
	"voicepilot/internal/page"
	"voicepilot/internal/usecase"
)

var ErrInvalidContract = errors.New("invalid host contract")

// Contract describes the host application: where its pages live, how its
// controls are selected and which labels its report uses.
type Contract struct {
	Routes    usecase.Routes `yaml:"routes"`
	Labels    usecase.Labels `yaml:"labels"`
	Selectors page.Selectors `yaml:"selectors"`
}

// DefaultContract matches the stock WebAudit application.
func DefaultContract() Contract {
	return Contract{
		Routes:    usecase.DefaultRoutes(),
		Labels:    usecase.DefaultLabels(),
		Selectors: page.DefaultSelectors(),
	}
}

// LoadContract overlays the YAML file at path onto DefaultContract. A missing
// file yields the defaults.
func LoadContract(path string) (Contract, error) {
	contract := DefaultContract()
	if strings.TrimSpace(path) == "" {
		return contract, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return contract, nil
		}
		return Contract{}, fmt.Errorf("open contract: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&contract); err != nil && !errors.Is(err, io.EOF) {
		return Contract{}, fmt.Errorf("parse contract %s: %w", path, err)
	}
	if err := contract.Validate(); err != nil {
		return Contract{}, fmt.Errorf("%s: %w", path, err)
	}
	return contract, nil
}

// Validate rejects contracts with empty routes, selectors or labels.
func (c Contract) Validate() error {
	var problems []string

	routes := []struct {
		name  string
		value string
	}{
		{"routes.scan", c.Routes.Scan},
		{"routes.report", c.Routes.Report},
		{"routes.url_entry", c.Routes.URLEntry},
		{"routes.download_report", c.Routes.DownloadReport},
		{"routes.home", c.Routes.Home},
	}
	for _, r := range routes {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.name)
		}
	}
	for _, name := range c.Selectors.Missing() {
		problems = append(problems, "selectors."+name)
	}
	for _, category := range domain.Categories {
		if strings.TrimSpace(c.Labels.Scores[category]) == "" {
			problems = append(problems, "labels.scores."+string(category))
		}
		if strings.TrimSpace(c.Labels.Findings[category]) == "" {
			problems = append(problems, "labels.findings."+string(category))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: empty %s", ErrInvalidContract, strings.Join(problems, ", "))
	}
	return nil
}
