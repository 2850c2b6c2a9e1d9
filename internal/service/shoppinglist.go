package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/model"
)

// IngredientTotal is one row of the consolidated shopping list.
type IngredientTotal struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int    `json:"total_amount"`
}

// ShoppingListService aggregates the ingredient lines of every recipe in a
// user's shopping cart and renders the result as a PDF.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate merges all cart-linked ingredient lines into one row per
// distinct ingredient name, summing amounts, sorted ascending by name. The
// grouping key is the name alone: lines sharing a name are merged even when
// their units differ, and the unit of the first-encountered line wins.
// Recomputed fresh on every call; an empty cart yields an empty list.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uuid.UUID) ([]IngredientTotal, error) {
	var lines []struct {
		Name            string
		MeasurementUnit string
		Amount          int
	}
	err := s.db.WithContext(ctx).
		Model(&model.RecipeIngredient{}).
		Select("ingredients.name, ingredients.measurement_unit, recipe_ingredients.amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Order("recipe_ingredients.created_at, recipe_ingredients.id").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}

	totals := make([]IngredientTotal, 0, len(lines))
	byName := make(map[string]int, len(lines))
	for _, line := range lines {
		if idx, ok := byName[line.Name]; ok {
			totals[idx].TotalAmount += line.Amount
			continue
		}
		byName[line.Name] = len(totals)
		totals = append(totals, IngredientTotal{
			Name:            line.Name,
			MeasurementUnit: line.MeasurementUnit,
			TotalAmount:     line.Amount,
		})
	}

	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Name < totals[j].Name
	})
	return totals, nil
}

const (
	pdfLeftMargin = 30.0
	pdfTopMargin  = 40.0
	pdfRowHeight  = 20.0
)

// RenderPDF lays the list out on a single Letter page: a title, then one
// row per ingredient at a fixed row height. An empty list yields a document
// with the title only. There is no page-break handling on overflow.
func (s *ShoppingListService) RenderPDF(list []IngredientTotal) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 15)

	y := pdfTopMargin
	pdf.Text(pdfLeftMargin, y, "Ingredients List")
	y += pdfRowHeight
	for _, row := range list {
		pdf.Text(pdfLeftMargin, y, fmt.Sprintf("%s (%s): %d",
			capitalize(row.Name), row.MeasurementUnit, row.TotalAmount))
		y += pdfRowHeight
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
