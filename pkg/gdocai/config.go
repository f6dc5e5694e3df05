package gdocai

import "fmt"

// Config holds the Document AI processor to send documents to.
type Config struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	ProcessorID     string `yaml:"processor_id"`
	CredentialsFile string `yaml:"credentials_file"` // Empty uses GOOGLE_APPLICATION_CREDENTIALS
}

// Validate checks that the processor is fully named.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("document AI config is missing")
	}
	if c.ProjectID == "" || c.Location == "" || c.ProcessorID == "" {
		return fmt.Errorf("document AI config needs project_id, location and processor_id")
	}
	return nil
}

// ProcessorName is the resource name of the processor.
func (c *Config) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// Endpoint is the regional API endpoint of the processor.
func (c *Config) Endpoint() string {
	return fmt.Sprintf("%s-documentai.googleapis.com:443", c.Location)
}
