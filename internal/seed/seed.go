// Package seed loads and applies the reference data a fresh deployment needs.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

//go:embed schema.json
var schemaDocument []byte

//go:embed default.json
var defaultDocument []byte

const schemaURL = "seed.schema.json"

// Role is a seeded role.
type Role struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ActivityType is a seeded activity type.
type ActivityType struct {
	Name                         string `json:"name"`
	Description                  string `json:"description"`
	Value                        int    `json:"value"`
	SupportsMultipleParticipants bool   `json:"supports_multiple_participants"`
}

// Society is a seeded society. Societies always start with an empty ledger.
type Society struct {
	Name        string `json:"name"`
	ColorScheme string `json:"color_scheme"`
}

// Operator is a user granted success ops on seeding. ID is the subject their tokens carry.
type Operator struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Data is a validated seed document.
type Data struct {
	Roles         []Role         `json:"roles"`
	Centers       []string       `json:"centers"`
	ActivityTypes []ActivityType `json:"activity_types"`
	Societies     []Society      `json:"societies"`
	Operators     []Operator     `json:"operators"`
}

// Result counts the rows each seed run inserted.
type Result struct {
	Roles         int64
	Centers       int64
	ActivityTypes int64
	Societies     int64
	Operators     int64
}

// Default returns the embedded seed document.
func Default() (Data, error) {
	return Parse(defaultDocument)
}

// LoadFile reads a seed document from path, falling back to the embedded one when path is empty.
func LoadFile(path string) (Data, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw against the seed schema and decodes it.
func Parse(raw []byte) (Data, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaDocument)); err != nil {
		return Data{}, fmt.Errorf("load seed schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return Data{}, fmt.Errorf("compile seed schema: %w", err)
	}

	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return Data{}, fmt.Errorf("decode seed document: %w", err)
	}
	if err := schema.Validate(document); err != nil {
		return Data{}, fmt.Errorf("invalid seed document: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("decode seed document: %w", err)
	}
	return data, nil
}

// Apply inserts the document's rows, leaving rows whose name already exists untouched.
func Apply(ctx context.Context, db *gorm.DB, data Data, logger zerolog.Logger) (Result, error) {
	logger = logger.With().Str("component", "seed").Logger()

	var result Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insert := func(rows interface{}) *gorm.DB {
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(rows)
		}

		if len(data.Roles) > 0 {
			roles := make([]models.Role, 0, len(data.Roles))
			for _, role := range data.Roles {
				roles = append(roles, models.Role{Name: string(workflow.NormalizeRole(role.Name)), Description: role.Description})
			}
			created := insert(&roles)
			if created.Error != nil {
				return fmt.Errorf("seed roles: %w", created.Error)
			}
			result.Roles = created.RowsAffected
		}

		if len(data.Centers) > 0 {
			centers := make([]models.Center, 0, len(data.Centers))
			for _, name := range data.Centers {
				centers = append(centers, models.Center{Name: strings.TrimSpace(name)})
			}
			created := insert(&centers)
			if created.Error != nil {
				return fmt.Errorf("seed centers: %w", created.Error)
			}
			result.Centers = created.RowsAffected
		}

		if len(data.ActivityTypes) > 0 {
			types := make([]models.ActivityType, 0, len(data.ActivityTypes))
			for _, item := range data.ActivityTypes {
				types = append(types, models.ActivityType{
					Name:                         strings.TrimSpace(item.Name),
					Description:                  item.Description,
					Value:                        item.Value,
					SupportsMultipleParticipants: item.SupportsMultipleParticipants,
				})
			}
			created := insert(&types)
			if created.Error != nil {
				return fmt.Errorf("seed activity types: %w", created.Error)
			}
			result.ActivityTypes = created.RowsAffected
		}

		if len(data.Societies) > 0 {
			societies := make([]models.Society, 0, len(data.Societies))
			for _, item := range data.Societies {
				societies = append(societies, models.Society{Name: strings.TrimSpace(item.Name), ColorScheme: item.ColorScheme})
			}
			created := insert(&societies)
			if created.Error != nil {
				return fmt.Errorf("seed societies: %w", created.Error)
			}
			result.Societies = created.RowsAffected
		}

		if len(data.Operators) > 0 {
			operators, err := seedOperators(tx, data.Operators)
			if err != nil {
				return fmt.Errorf("seed operators: %w", err)
			}
			result.Operators = operators
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info().
		Int64("roles", result.Roles).
		Int64("centers", result.Centers).
		Int64("activity_types", result.ActivityTypes).
		Int64("societies", result.Societies).
		Int64("operators", result.Operators).
		Msg("reference data seeded")
	return result, nil
}

// seedOperators creates missing operator users and grants each the success ops role.
func seedOperators(tx *gorm.DB, operators []Operator) (int64, error) {
	var role models.Role
	if err := tx.Where("name = ?", string(workflow.RoleSuccessOps)).First(&role).Error; err != nil {
		return 0, fmt.Errorf("success ops role: %w", err)
	}

	var granted int64
	for _, operator := range operators {
		email := strings.ToLower(strings.TrimSpace(operator.Email))
		user := models.User{ID: strings.TrimSpace(operator.ID), Email: email, Name: strings.TrimSpace(operator.Name)}
		if user.Name == "" {
			user.Name = email
		}
		created := tx.Omit("Society", "Center", "Roles").Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
		if created.Error != nil {
			return granted, created.Error
		}

		linked := tx.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?) ON CONFLICT DO NOTHING", user.ID, role.ID)
		if linked.Error != nil {
			return granted, linked.Error
		}
		granted += linked.RowsAffected
	}
	return granted, nil
}
