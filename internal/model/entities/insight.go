package entities

// InsightLevel tells the shell how prominently to render an insight.
type InsightLevel string

const (
	LevelSuccess InsightLevel = "success"
	LevelInfo    InsightLevel = "info"
	LevelWarning InsightLevel = "warning"
	LevelError   InsightLevel = "error"
)

// Insight is one advisory line derived from the score or a raw input.
type Insight struct {
	Rule    string       `json:"rule"`
	Level   InsightLevel `json:"level"`
	Message string       `json:"message"`
}
