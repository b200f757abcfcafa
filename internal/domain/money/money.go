// Package money implementa montos monetarios en punto fijo: un entero en unidades
// menores (centavos) etiquetado con su moneda ISO 4217.
//
// Toda la aritmética opera sobre el entero. Solo se redondea en dos fronteras:
// cantidad × precio (MulQuantity) y monto × tasa (MulRate); en ambos casos con
// redondeo half-even (bancario) a la unidad menor de la moneda, de modo que los
// totales son reproducibles byte a byte.
package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/jhoicas/Ledger-api/internal/domain"
)

// Money monto en unidades menores de Currency.
type Money struct {
	Amount   int64  // unidades menores (centavos, peniques...)
	Currency string // ISO 4217 en mayúsculas: "USD", "COP", "JPY"
}

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Scale devuelve la cantidad de decimales de la unidad menor de la moneda (2 para USD, 0 para JPY).
func Scale(code string) (int32, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 0, domain.Validationf("moneda desconocida %q", code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale), nil
}

// NormalizeCurrency valida el código y lo devuelve en su forma canónica.
func NormalizeCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", domain.Validationf("moneda desconocida %q", code)
	}
	return unit.String(), nil
}

// New construye un monto a partir de unidades menores. No valida la moneda.
func New(minor int64, code string) Money {
	return Money{Amount: minor, Currency: strings.ToUpper(code)}
}

// Zero monto cero en la moneda dada.
func Zero(code string) Money { return New(0, code) }

// FromDecimal convierte un valor en unidades mayores ("125.50") a Money.
// Rechaza valores con más decimales de los que admite la moneda: la entrada nunca se redondea.
func FromDecimal(d decimal.Decimal, code string) (Money, error) {
	norm, err := NormalizeCurrency(code)
	if err != nil {
		return Money{}, err
	}
	scale, _ := Scale(norm)
	shifted := d.Shift(scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return Money{}, domain.Validationf("%s admite %d decimales, recibido %s", norm, scale, d.String())
	}
	if shifted.GreaterThan(maxMinor) || shifted.LessThan(minMinor) {
		return Money{}, domain.Validationf("monto %s fuera de rango", d.String())
	}
	return Money{Amount: shifted.IntPart(), Currency: norm}, nil
}

// Parse interpreta un string decimal en unidades mayores.
func Parse(s, code string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, domain.Validationf("monto inválido %q", s)
	}
	return FromDecimal(d, code)
}

// MustParse como Parse pero entra en pánico; solo para constantes y tests.
func MustParse(s, code string) Money {
	m, err := Parse(s, code)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) scale() int32 {
	s, err := Scale(m.Currency)
	if err != nil {
		return 2
	}
	return s
}

// Decimal devuelve el valor en unidades mayores.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -m.scale())
}

// String "125.00 USD".
func (m Money) String() string {
	return m.Decimal().StringFixed(m.scale()) + " " + m.Currency
}

// ── aritmética ────────────────────────────────────────────────────────────────

func (m Money) sameCurrency(o Money) error {
	if m.Currency != o.Currency {
		return domain.CurrencyMismatch(m.Currency, o.Currency)
	}
	return nil
}

// Add suma dos montos de la misma moneda.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	sum := m.Amount + o.Amount
	if (o.Amount > 0 && sum < m.Amount) || (o.Amount < 0 && sum > m.Amount) {
		return Money{}, domain.Validationf("desbordamiento al sumar %s + %s", m, o)
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// Sub resta o de m.
func (m Money) Sub(o Money) (Money, error) {
	return m.Add(o.Neg())
}

// Neg invierte el signo.
func (m Money) Neg() Money { return Money{Amount: -m.Amount, Currency: m.Currency} }

// Abs valor absoluto.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return m.Neg()
	}
	return m
}

// MulQuantity multiplica un precio unitario por una cantidad decimal.
// Redondeo: half-even a la unidad menor de la moneda.
func (m Money) MulQuantity(qty decimal.Decimal) (Money, error) {
	return m.mulRounded(qty)
}

// MulRate aplica una tasa (0.05 = 5 %) al monto.
// Redondeo: half-even a la unidad menor de la moneda.
func (m Money) MulRate(rate decimal.Decimal) (Money, error) {
	return m.mulRounded(rate)
}

func (m Money) mulRounded(factor decimal.Decimal) (Money, error) {
	product := decimal.NewFromInt(m.Amount).Mul(factor).RoundBank(0)
	if product.GreaterThan(maxMinor) || product.LessThan(minMinor) {
		return Money{}, domain.Validationf("desbordamiento al multiplicar %s por %s", m, factor.String())
	}
	return Money{Amount: product.IntPart(), Currency: m.Currency}, nil
}

// ── comparación ───────────────────────────────────────────────────────────────

// Cmp compara dos montos de la misma moneda: -1, 0, 1.
func (m Money) Cmp(o Money) (int, error) {
	if err := m.sameCurrency(o); err != nil {
		return 0, err
	}
	switch {
	case m.Amount < o.Amount:
		return -1, nil
	case m.Amount > o.Amount:
		return 1, nil
	}
	return 0, nil
}

// Equal igualdad estricta (monto y moneda).
func (m Money) Equal(o Money) bool { return m.Amount == o.Amount && m.Currency == o.Currency }

// IsZero monto cero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive monto estrictamente positivo.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative monto estrictamente negativo.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Sum suma montos en la moneda dada; falla ante cualquier moneda distinta.
func Sum(code string, values ...Money) (Money, error) {
	total := Zero(code)
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// ── JSON ──────────────────────────────────────────────────────────────────────

type wire struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Minor    *int64 `json:"minor,omitempty"`
}

// MarshalJSON {"amount":"125.00","currency":"USD","minor":12500}.
func (m Money) MarshalJSON() ([]byte, error) {
	minor := m.Amount
	return json.Marshal(wire{
		Amount:   m.Decimal().StringFixed(m.scale()),
		Currency: m.Currency,
		Minor:    &minor,
	})
}

// UnmarshalJSON acepta "minor" (exacto) o "amount" en unidades mayores.
func (m *Money) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "decodificar monto")
	}
	if w.Minor != nil {
		norm, err := NormalizeCurrency(w.Currency)
		if err != nil {
			return err
		}
		*m = Money{Amount: *w.Minor, Currency: norm}
		return nil
	}
	parsed, err := Parse(w.Amount, w.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
