// Package scaling keeps the ingredients of one displayed recipe proportional.
// Editing any ingredient's quantity derives a scale factor that is broadcast
// to every other ingredient, which rescales itself and picks a readable unit.
package scaling

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/units"
)

var (
	// ErrInvalidQuantity is returned for negative or non-numeric quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrIngredientIndex is returned when no ingredient exists at an index.
	ErrIngredientIndex = errors.New("ingredient index out of range")
)

// State is the coordinator state of a session.
type State int

const (
	// StateIdle means the factor is 1.
	StateIdle State = iota
	// StateScaled means the factor differs from 1.
	StateScaled
	// StateBroadcasting is held while ingredients rescale. Quantity changes
	// seen in this state never derive a new factor.
	StateBroadcasting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScaled:
		return "scaled"
	case StateBroadcasting:
		return "broadcasting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for factor changes.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithRegistry replaces the default unit registry.
func WithRegistry(r *units.Registry) Option {
	return func(s *Session) {
		s.registry = r
	}
}

// WithFactorIngredient prepends a unitless pseudo-ingredient of quantity 1
// that always shows the current factor and can be edited like any other.
func WithFactorIngredient(name string) Option {
	return func(s *Session) {
		s.factorName = name
		s.withFactor = true
	}
}

// Session is the scaling context of the currently displayed recipe. It owns
// the scale factor and the bus its ingredients listen on. A Session belongs
// to a single event loop and is not safe for concurrent use.
type Session struct {
	registry    *units.Registry
	bus         *Bus
	log         *slog.Logger
	factorName  string
	ingredients []*Ingredient
	factor      float64
	state       State
	withFactor  bool
}

// NewSession builds a session for the given ingredients at factor 1.
func NewSession(ingredients []model.Ingredient, opts ...Option) *Session {
	s := &Session{
		registry: units.Default,
		bus:      NewBus(),
		log:      slog.Default(),
		factor:   1,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.withFactor {
		s.add(model.Ingredient{Name: s.factorName, Quantity: 1}, true)
	}
	for _, ing := range ingredients {
		s.add(ing, false)
	}

	return s
}

func (s *Session) add(src model.Ingredient, isFactor bool) {
	q := src.Quantity
	if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		q = 0
	}
	ing := &Ingredient{
		session:  s,
		name:     src.Name,
		unit:     s.registry.Canonical(src.Unit),
		quantity: q,
		original: q,
		index:    len(s.ingredients),
		isFactor: isFactor,
	}
	ing.unsubscribe = s.bus.Subscribe(ing)
	s.ingredients = append(s.ingredients, ing)
}

// Factor returns the current scale factor.
func (s *Session) Factor() float64 {
	return s.factor
}

// State returns the coordinator state.
func (s *Session) State() State {
	return s.state
}

// Bus returns the bus ingredients listen on. Views subscribe to it to redraw.
func (s *Session) Bus() *Bus {
	return s.bus
}

// Registry returns the unit registry in use.
func (s *Session) Registry() *units.Registry {
	return s.registry
}

// Len returns the number of ingredients, including the factor ingredient.
func (s *Session) Len() int {
	return len(s.ingredients)
}

// Ingredients returns the session's ingredients in display order.
func (s *Session) Ingredients() []*Ingredient {
	out := make([]*Ingredient, len(s.ingredients))
	copy(out, s.ingredients)
	return out
}

// Ingredient returns the ingredient at index i.
func (s *Session) Ingredient(i int) (*Ingredient, error) {
	if i < 0 || i >= len(s.ingredients) {
		return nil, fmt.Errorf("%w: %d", ErrIngredientIndex, i)
	}
	return s.ingredients[i], nil
}

// SetQuantity edits the quantity of ingredient i.
func (s *Session) SetQuantity(i int, q float64) error {
	ing, err := s.Ingredient(i)
	if err != nil {
		return err
	}
	return ing.SetQuantity(q)
}

// SetQuantityText parses text as typed by a user and edits ingredient i.
// A comma is accepted as decimal separator.
func (s *Session) SetQuantityText(i int, text string) error {
	q, err := ParseQuantity(text)
	if err != nil {
		return err
	}
	return s.SetQuantity(i, q)
}

// SetUnit changes the unit of ingredient i.
func (s *Session) SetUnit(i int, unit string) error {
	ing, err := s.Ingredient(i)
	if err != nil {
		return err
	}
	return ing.SetUnit(unit)
}

// ScaleBy applies factor to every ingredient, as if the factor ingredient
// had been edited.
func (s *Session) ScaleBy(factor float64) error {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return fmt.Errorf("%w: factor %v", ErrInvalidQuantity, factor)
	}
	if factor == s.factor {
		return nil
	}
	s.factor = factor
	s.log.Debug("scale factor set", "factor", factor)
	s.broadcast(nil)
	return nil
}

// Reset returns the factor to 1 and every ingredient to its original quantity.
func (s *Session) Reset() {
	s.factor = 1
	s.log.Debug("scale factor reset")
	s.broadcast(nil)
}

// Scaled returns the current quantities, without the factor ingredient.
func (s *Session) Scaled() []model.Ingredient {
	out := make([]model.Ingredient, 0, len(s.ingredients))
	for _, ing := range s.ingredients {
		if ing.isFactor {
			continue
		}
		out = append(out, model.Ingredient{
			Name:     ing.name,
			Quantity: ing.quantity,
			Unit:     ing.unit,
		})
	}
	return out
}

// Close detaches every ingredient from the bus.
func (s *Session) Close() {
	for _, ing := range s.ingredients {
		if ing.unsubscribe != nil {
			ing.unsubscribe()
			ing.unsubscribe = nil
		}
	}
}

// quantityEdited derives a new factor from an edit of ing and broadcasts it.
func (s *Session) quantityEdited(ing *Ingredient) {
	if s.state == StateBroadcasting {
		return
	}
	if ing.original == 0 || math.IsNaN(ing.original) {
		return
	}

	factor := ing.quantity / ing.original
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) || factor == s.factor {
		return
	}

	s.factor = factor
	s.log.Debug("scale factor updated", "factor", factor, "ingredient", ing.name)
	s.broadcast(ing)
}

func (s *Session) broadcast(origin *Ingredient) {
	s.state = StateBroadcasting
	s.bus.Publish(ProportionUpdated{Origin: origin, Factor: s.factor})
	if s.factor == 1 {
		s.state = StateIdle
	} else {
		s.state = StateScaled
	}
}

// ParseQuantity parses a user-typed quantity.
func ParseQuantity(text string) (float64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if text == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidQuantity)
	}
	q, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, text)
	}
	if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, text)
	}
	return q, nil
}
