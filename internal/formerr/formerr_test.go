package formerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type addressForm struct {
	ZipCode string `json:"zipCode" validate:"required,len=8,numeric"`
}

type supplierForm struct {
	Name    string      `json:"name" validate:"required,max=10"`
	Email   string      `json:"email" validate:"omitempty,email"`
	Address addressForm `json:"address"`
	Items   []itemForm  `json:"items" validate:"min=1,dive"`
}

type itemForm struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

func TestFromViolations_LastWins(t *testing.T) {
	m := FromViolations([]Violation{
		{Path: "email", Message: "first"},
		{Path: "name", Message: "Campo obrigatório"},
		{Path: "email", Message: "second"},
	})

	require.Len(t, m, 2)
	require.Equal(t, "second", m["email"])
}

func TestValidate_FieldPathsUseJSONNames(t *testing.T) {
	f := supplierForm{
		Name:    "Fornecedor muito longo",
		Email:   "not-an-email",
		Address: addressForm{ZipCode: "12a"},
		Items:   []itemForm{{Quantity: 0}},
	}

	m, ok := Validate(&f)
	require.False(t, ok)
	require.Equal(t, "Deve ter no máximo 10 caracteres", m["name"])
	require.Equal(t, "E-mail inválido", m["email"])
	require.Equal(t, "Deve ter 8 caracteres", m["address.zipCode"])
	require.Equal(t, "Deve ser maior que 0", m["items[0].quantity"])
}

func TestValidate_FreshMapEachCall(t *testing.T) {
	bad := supplierForm{}
	m1, ok := Validate(&bad)
	require.False(t, ok)
	require.Contains(t, m1, "name")

	good := supplierForm{Name: "ACME", Address: addressForm{ZipCode: "01310100"}, Items: []itemForm{{Quantity: 1}}}
	m2, ok := Validate(&good)
	require.True(t, ok)
	require.Empty(t, m2)
	require.Contains(t, m1, "name")
}

func TestMap_IgnoresOtherErrors(t *testing.T) {
	require.Empty(t, Map(errors.New("boom")))
	require.Empty(t, Map(nil))
}

func TestValidate_MinItems(t *testing.T) {
	f := supplierForm{Name: "ACME", Address: addressForm{ZipCode: "01310100"}}
	m, ok := Validate(&f)
	require.False(t, ok)
	require.Equal(t, "Informe ao menos 1 item(ns)", m["items"])
}
