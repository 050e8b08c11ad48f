package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a custom type for JSON columns (map[string]interface{})
type JSONMap map[string]interface{}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSONMap value: %w", err)
	}
	result := make(map[string]interface{})
	err = json.Unmarshal(bytes, &result)
	*j = JSONMap(result)
	return err
}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// JSONIntArray is a custom type for JSON integer arrays
type JSONIntArray []int

// Scan implements sql.Scanner interface
func (j *JSONIntArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSONIntArray value: %w", err)
	}
	result := make([]int, 0)
	err = json.Unmarshal(bytes, &result)
	*j = JSONIntArray(result)
	return err
}

// Value implements driver.Valuer interface
func (j JSONIntArray) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(j))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// scanBytes accepts the representations drivers use for JSON columns
func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
