package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxJSONSize    = 1 * 1024 * 1024 // request body limit
	MaxInputSize   = 64 * 1024       // single write to a terminal
	MaxCommandSize = 16 * 1024       // captured command line
)

// String length limits
const (
	MaxIDLength       = 128
	MaxCategoryLength = 64
	MaxTerminalCols   = 1000
	MaxTerminalRows   = 1000
)

// Regular expressions for validation
var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots (for service.tool format)
	ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	// CategoryPattern allows lowercase letters, numbers, and hyphens
	CategoryPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateToolID validates a tool ID field (allows dots for service.tool format)
func ValidateToolID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateCategory validates a category field
func ValidateCategory(category string, required bool) error {
	if err := ValidateString(category, "category", 0, MaxCategoryLength, required); err != nil {
		return err
	}

	if category != "" && !CategoryPattern.MatchString(category) {
		return fmt.Errorf("category must contain only lowercase letters, numbers, and hyphens")
	}

	return nil
}

// ValidateCommand validates a command line submitted for capture.
func ValidateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command is required")
	}
	if len(command) > MaxCommandSize {
		return fmt.Errorf("command must not exceed %d bytes", MaxCommandSize)
	}
	if strings.Contains(command, "\x00") {
		return fmt.Errorf("command contains invalid characters")
	}
	return nil
}

// ValidateInput validates raw terminal input. Control characters are
// allowed since they are how keys like Ctrl-C reach the shell.
func ValidateInput(input string) error {
	if input == "" {
		return fmt.Errorf("input is required")
	}
	if len(input) > MaxInputSize {
		return fmt.Errorf("input must not exceed %d bytes", MaxInputSize)
	}
	return nil
}

// ValidateTerminalSize validates terminal dimensions.
func ValidateTerminalSize(cols, rows int) error {
	if cols < 1 || cols > MaxTerminalCols {
		return fmt.Errorf("cols must be between 1 and %d", MaxTerminalCols)
	}
	if rows < 1 || rows > MaxTerminalRows {
		return fmt.Errorf("rows must be between 1 and %d", MaxTerminalRows)
	}
	return nil
}
