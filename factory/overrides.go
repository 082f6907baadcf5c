/*
Package factory builds the rate tables the engine consumes.

PURPOSE:
  The engine receives already-resolved rate tables. This package starts
  from the standard program (DefaultRateTables) and merges an
  organization's overrides on top of it. Overrides arrive as JSON (API) or
  YAML (RATES_FILE) and are rejected here, before they reach the engine,
  when they are malformed.

OVERRIDE SCHEMA (YAML, every section optional):
  organization: acme
  mobile:
    multipliers: [1, 1.25, 1.5, 2]
    categories:
      tied: {pointWeight: 0.8, flatToken: 6}
  fixed:
    pointWeights: {ftth: 1.5}
    rates: {rateFtth: 30, migration: 45}
  partnership:
    bank_account: {tokenPerPiece: 18, partnershipPointsPerPiece: 3}
  energy:
    rates: {luce_business: 45}
    bonuses: [{threshold: 10, bonus: 120}]
    targetPerStore: 50
  insurance:
    products: {casa: {pointWeight: 1, rate: 18}}
    viaggioCap: 250
  protecta:
    rates: {protecta_plus: 16}
  extraVat:
    weights: {mobile: {business_tied: 1.2}}
    baseThresholds: {mono_bp: [20, 35, 50, 75]}
    rates: {plus: [0, 5, 8, 12, 18]}

VALIDATION:
  1. Struct tags (validator/v10): non-negative amounts, positive bonus
     thresholds, bounded shares
  2. Categories must exist on their track (generic track registry)
  3. Threshold ladders must be non-decreasing

  Errors are *generic.OverrideError with the offending path.

USAGE:
  f := factory.NewOverrideFactory()
  o, err := f.ParseYAML(data)
  tables, err := f.Apply(factory.DefaultRateTables(), o)

SEE ALSO:
  - factory/tables.go: RateTables
  - store/sqlite/: persists overrides per organization
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/extravat"
	"github.com/warp/premi-engine/fixed"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/insurance"
	"github.com/warp/premi-engine/mobile"
	"github.com/warp/premi-engine/network"
	"github.com/warp/premi-engine/partnership"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// OVERRIDE SCHEMA TYPES
// =============================================================================

// Overrides is the organization-specific part of the program. Only the
// fields present replace the defaults.
type Overrides struct {
	Organization string                       `json:"organization,omitempty" yaml:"organization"`
	Mobile       *MobileOverride              `json:"mobile,omitempty" yaml:"mobile"`
	Fixed        *FixedOverride               `json:"fixed,omitempty" yaml:"fixed"`
	Partnership  map[string]EventRateOverride `json:"partnership,omitempty" yaml:"partnership" validate:"omitempty,dive"`
	Energy       *EnergyOverride              `json:"energy,omitempty" yaml:"energy"`
	Insurance    *InsuranceOverride           `json:"insurance,omitempty" yaml:"insurance"`
	Protecta     *LadderOverride              `json:"protecta,omitempty" yaml:"protecta"`
	ExtraVAT     *ExtraVATOverride            `json:"extraVat,omitempty" yaml:"extraVat"`
}

type MobileOverride struct {
	Multipliers []float64                         `json:"multipliers,omitempty" yaml:"multipliers" validate:"omitempty,dive,gte=0"`
	Categories  map[string]MobileCategoryOverride `json:"categories,omitempty" yaml:"categories" validate:"omitempty,dive"`
}

type MobileCategoryOverride struct {
	PointWeight *float64           `json:"pointWeight,omitempty" yaml:"pointWeight" validate:"omitempty,gte=0"`
	FeeEligible *bool              `json:"feeEligible,omitempty" yaml:"feeEligible"`
	FlatToken   *float64           `json:"flatToken,omitempty" yaml:"flatToken" validate:"omitempty,gte=0"`
	TierToken   *TierTokenOverride `json:"tierToken,omitempty" yaml:"tierToken"`
}

type TierTokenOverride struct {
	Base  float64   `json:"base" yaml:"base" validate:"gte=0"`
	Bonus []float64 `json:"bonus" yaml:"bonus" validate:"omitempty,dive,gte=0"`
}

type FixedOverride struct {
	Multipliers          []float64          `json:"multipliers,omitempty" yaml:"multipliers" validate:"omitempty,dive,gte=0"`
	PointWeights         map[string]float64 `json:"pointWeights,omitempty" yaml:"pointWeights" validate:"omitempty,dive,gte=0"`
	Rates                map[string]float64 `json:"rates,omitempty" yaml:"rates" validate:"omitempty,dive,gte=0"`
	UnlimitedCallsFactor []float64          `json:"unlimitedCallsFactor,omitempty" yaml:"unlimitedCallsFactor" validate:"omitempty,dive,gte=0"`
	PostalBillToken      []float64          `json:"postalBillToken,omitempty" yaml:"postalBillToken" validate:"omitempty,dive,gte=0"`
}

type EventRateOverride struct {
	TokenPerPiece             float64 `json:"tokenPerPiece" yaml:"tokenPerPiece" validate:"gte=0"`
	PartnershipPointsPerPiece float64 `json:"partnershipPointsPerPiece" yaml:"partnershipPointsPerPiece" validate:"gte=0"`
}

type BonusOverride struct {
	Threshold float64 `json:"threshold" yaml:"threshold" validate:"gt=0"`
	Bonus     float64 `json:"bonus" yaml:"bonus" validate:"gte=0"`
}

// LadderOverride covers the rate-card tracks: per-category euro rates and
// the threshold bonus ladder.
type LadderOverride struct {
	Rates   map[string]float64 `json:"rates,omitempty" yaml:"rates" validate:"omitempty,dive,gte=0"`
	Bonuses []BonusOverride    `json:"bonuses,omitempty" yaml:"bonuses" validate:"omitempty,dive"`
}

type EnergyOverride struct {
	LadderOverride `yaml:",inline"`
	TargetPerStore *float64 `json:"targetPerStore,omitempty" yaml:"targetPerStore" validate:"omitempty,gte=0"`
	BonusPerPiece  *float64 `json:"bonusPerPiece,omitempty" yaml:"bonusPerPiece" validate:"omitempty,gte=0"`
}

type ProductOverride struct {
	PointWeight float64 `json:"pointWeight" yaml:"pointWeight" validate:"gte=0"`
	Rate        float64 `json:"rate" yaml:"rate" validate:"gte=0"`
}

type InsuranceOverride struct {
	Products             map[string]ProductOverride `json:"products,omitempty" yaml:"products" validate:"omitempty,dive"`
	ViaggioPointsPer100  *float64                   `json:"viaggioPointsPer100,omitempty" yaml:"viaggioPointsPer100" validate:"omitempty,gte=0"`
	ViaggioPremiumShare  *float64                   `json:"viaggioPremiumShare,omitempty" yaml:"viaggioPremiumShare" validate:"omitempty,gte=0,lte=1"`
	ViaggioCap           *float64                   `json:"viaggioCap,omitempty" yaml:"viaggioCap" validate:"omitempty,gte=0"`
	ReloadEventsPerPoint *int                       `json:"reloadEventsPerPoint,omitempty" yaml:"reloadEventsPerPoint" validate:"omitempty,gt=0"`
	ReloadRate           *float64                   `json:"reloadRate,omitempty" yaml:"reloadRate" validate:"omitempty,gte=0"`
	Bonuses              []BonusOverride            `json:"bonuses,omitempty" yaml:"bonuses" validate:"omitempty,dive"`
}

type ExtraVATOverride struct {
	Weights        map[string]map[string]float64 `json:"weights,omitempty" yaml:"weights" validate:"omitempty,dive,dive,gte=0"`
	BaseThresholds map[string][]float64          `json:"baseThresholds,omitempty" yaml:"baseThresholds" validate:"omitempty,dive,dive,gte=0"`
	Rates          map[string][]float64          `json:"rates,omitempty" yaml:"rates" validate:"omitempty,dive,dive,gte=0"`
}

// =============================================================================
// OVERRIDE FACTORY
// =============================================================================

// OverrideFactory parses, validates and merges organization overrides.
type OverrideFactory struct {
	validate *validator.Validate
}

// NewOverrideFactory creates a factory whose validation errors are reported
// with JSON field names.
func NewOverrideFactory() *OverrideFactory {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &OverrideFactory{validate: v}
}

// ParseJSON decodes overrides from JSON. Unknown fields are rejected.
func (f *OverrideFactory) ParseJSON(data []byte) (*Overrides, error) {
	var o Overrides
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&o); err != nil {
		return nil, &generic.OverrideError{Path: "$", Reason: fmt.Sprintf("failed to parse overrides JSON: %v", err)}
	}
	return &o, nil
}

// ParseYAML decodes overrides from YAML. Unknown fields are rejected.
func (f *OverrideFactory) ParseYAML(data []byte) (*Overrides, error) {
	var o Overrides
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		return nil, &generic.OverrideError{Path: "$", Reason: fmt.Sprintf("failed to parse overrides YAML: %v", err)}
	}
	return &o, nil
}

// LoadFile reads overrides from a .yaml, .yml or .json file.
func (f *OverrideFactory) LoadFile(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return f.ParseYAML(data)
	case ".json":
		return f.ParseJSON(data)
	default:
		return nil, fmt.Errorf("rates file %s: unsupported extension", path)
	}
}

// Validate checks an override without applying it.
func (f *OverrideFactory) Validate(o *Overrides) error {
	if o == nil {
		return nil
	}
	if err := f.validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			ve := verrs[0]
			return &generic.OverrideError{
				Path:   strings.TrimPrefix(ve.Namespace(), "Overrides."),
				Reason: fmt.Sprintf("failed on %q", ve.Tag()),
			}
		}
		return &generic.OverrideError{Path: "$", Reason: err.Error()}
	}

	checks := []func(*Overrides) error{
		checkMobile, checkFixed, checkPartnership, checkEnergy,
		checkInsurance, checkProtecta, checkExtraVAT,
	}
	for _, check := range checks {
		if err := check(o); err != nil {
			return err
		}
	}
	return nil
}

// Apply validates an override and merges it into a copy of base.
func (f *OverrideFactory) Apply(base RateTables, o *Overrides) (RateTables, error) {
	if err := f.Validate(o); err != nil {
		return RateTables{}, err
	}
	out := base.Clone()
	if o == nil {
		return out, nil
	}
	mergeMobile(&out, o.Mobile)
	mergeFixed(&out, o.Fixed)
	for event, r := range o.Partnership {
		out.Partnership[event] = partnership.EventRate{
			TokenPerPiece:             generic.Dec(r.TokenPerPiece),
			PartnershipPointsPerPiece: generic.Dec(r.PartnershipPointsPerPiece),
		}
	}
	if o.Energy != nil {
		mergeLadder(out.Energy, &out.EnergyBonuses, &o.Energy.LadderOverride)
		if o.Energy.TargetPerStore != nil {
			out.EnergyProgram.TargetPerStore = generic.Dec(*o.Energy.TargetPerStore)
		}
		if o.Energy.BonusPerPiece != nil {
			out.EnergyProgram.BonusPerPiece = generic.Dec(*o.Energy.BonusPerPiece)
		}
	}
	mergeInsurance(&out, o.Insurance)
	if o.Protecta != nil {
		mergeLadder(out.Protecta, &out.ProtectaBonuses, o.Protecta)
	}
	mergeExtraVAT(&out, o.ExtraVAT)
	return out, nil
}

// =============================================================================
// CHECKS - registry and ordering rules the tags can't express
// =============================================================================

func unknownCategory(path, category string) error {
	return &generic.OverrideError{Path: path + "." + category, Err: generic.ErrUnknownCategory}
}

func checkCategories(track generic.TrackID, path string, categories []string) error {
	info, ok := generic.LookupTrack(track)
	if !ok {
		return &generic.OverrideError{Path: path, Err: generic.ErrUnknownTrack}
	}
	for _, c := range categories {
		if !info.HasCategory(c) {
			return unknownCategory(path, c)
		}
	}
	return nil
}

func checkOrder(path string, th generic.Thresholds) error {
	if err := th.Validate(); err != nil {
		return &generic.OverrideError{Path: path, Reason: err.Error(), Err: err}
	}
	return nil
}

func bonusLadder(bs []BonusOverride) generic.Bonuses {
	out := make(generic.Bonuses, len(bs))
	for i, b := range bs {
		out[i] = generic.BonusStep{Threshold: generic.Dec(b.Threshold), Bonus: generic.Dec(b.Bonus)}
	}
	return out
}

func checkMobile(o *Overrides) error {
	if o.Mobile == nil {
		return nil
	}
	return checkCategories(generic.TrackMobile, "mobile.categories", sortedKeys(o.Mobile.Categories))
}

func checkFixed(o *Overrides) error {
	if o.Fixed == nil {
		return nil
	}
	if err := checkCategories(generic.TrackFixed, "fixed.pointWeights", sortedKeys(o.Fixed.PointWeights)); err != nil {
		return err
	}
	for _, key := range sortedKeys(o.Fixed.Rates) {
		if _, ok := fixedRateFields[key]; !ok {
			return &generic.OverrideError{Path: "fixed.rates." + key, Reason: "unknown rate"}
		}
	}
	return nil
}

func checkPartnership(o *Overrides) error {
	for _, event := range sortedKeys(o.Partnership) {
		if strings.TrimSpace(event) == "" {
			return &generic.OverrideError{Path: "partnership", Reason: "empty event type"}
		}
	}
	return nil
}

func checkLadder(track generic.TrackID, path string, l *LadderOverride) error {
	if err := checkCategories(track, path+".rates", sortedKeys(l.Rates)); err != nil {
		return err
	}
	return checkOrder(path+".bonuses", bonusLadder(l.Bonuses).Thresholds())
}

func checkEnergy(o *Overrides) error {
	if o.Energy == nil {
		return nil
	}
	return checkLadder(generic.TrackEnergy, "energy", &o.Energy.LadderOverride)
}

func checkProtecta(o *Overrides) error {
	if o.Protecta == nil {
		return nil
	}
	return checkLadder(generic.TrackProtecta, "protecta", o.Protecta)
}

func checkInsurance(o *Overrides) error {
	if o.Insurance == nil {
		return nil
	}
	for _, c := range sortedKeys(o.Insurance.Products) {
		// Viaggio Mondo and Reload Forever have their own rules.
		if c == insurance.CategoryViaggioMondo || c == insurance.CategoryReloadForever {
			return &generic.OverrideError{Path: "insurance.products." + c, Reason: "category is not priced per product"}
		}
	}
	if err := checkCategories(generic.TrackInsurance, "insurance.products", sortedKeys(o.Insurance.Products)); err != nil {
		return err
	}
	return checkOrder("insurance.bonuses", bonusLadder(o.Insurance.Bonuses).Thresholds())
}

func checkExtraVAT(o *Overrides) error {
	if o.ExtraVAT == nil {
		return nil
	}
	for _, track := range sortedKeys(o.ExtraVAT.Weights) {
		path := "extraVat.weights." + track
		if generic.TrackID(track) == generic.TrackExtraVAT {
			return &generic.OverrideError{Path: path, Err: generic.ErrUnknownTrack}
		}
		if err := checkCategories(generic.TrackID(track), path, sortedKeys(o.ExtraVAT.Weights[track])); err != nil {
			return err
		}
	}
	for _, p := range sortedKeys(o.ExtraVAT.BaseThresholds) {
		path := "extraVat.baseThresholds." + p
		switch extravat.Profile(p) {
		case extravat.ProfileMono, extravat.ProfileMonoBP, extravat.ProfileMulti, extravat.ProfileMultiBP:
		default:
			return &generic.OverrideError{Path: path, Reason: "unknown profile"}
		}
		if err := checkOrder(path, thresholdsOf(o.ExtraVAT.BaseThresholds[p])); err != nil {
			return err
		}
	}
	for _, c := range sortedKeys(o.ExtraVAT.Rates) {
		switch network.PIvaClass(c) {
		case network.ClassPlus, network.ClassStandard, network.ClassNone:
		default:
			return &generic.OverrideError{Path: "extraVat.rates." + c, Reason: "unknown P.IVA class"}
		}
	}
	return nil
}

// =============================================================================
// MERGE
// =============================================================================

func mergeMobile(out *RateTables, o *MobileOverride) {
	if o == nil {
		return
	}
	if len(o.Multipliers) > 0 {
		out.MobileMultipliers = generic.MultipliersOf(o.Multipliers...)
	}
	for cat, c := range o.Categories {
		row := out.Mobile[cat]
		if c.PointWeight != nil {
			row.PointWeight = generic.Dec(*c.PointWeight)
		}
		if c.FeeEligible != nil {
			row.FeeEligible = *c.FeeEligible
		}
		if c.FlatToken != nil {
			row.FlatToken = generic.Dec(*c.FlatToken)
		}
		if c.TierToken != nil {
			row.TierToken = &mobile.TierToken{
				Base:  generic.Dec(c.TierToken.Base),
				Bonus: generic.TierTableOf(c.TierToken.Bonus...),
			}
		}
		out.Mobile[cat] = row
	}
}

// fixedRateFields maps override keys to the RateTable field they replace.
var fixedRateFields = map[string]func(*fixed.RateTable) *decimal.Decimal{
	"rateFttc":            func(t *fixed.RateTable) *decimal.Decimal { return &t.RateFTTC },
	"rateFtth":            func(t *fixed.RateTable) *decimal.Decimal { return &t.RateFTTH },
	"rateFwaIndoor":       func(t *fixed.RateTable) *decimal.Decimal { return &t.RateFWAIndoor },
	"rateFwaOutdoor":      func(t *fixed.RateTable) *decimal.Decimal { return &t.RateFWAOutdoor },
	"ratePivaSecondLine":  func(t *fixed.RateTable) *decimal.Decimal { return &t.RatePIvaSecondLine },
	"tokenStandard":       func(t *fixed.RateTable) *decimal.Decimal { return &t.TokenStandard },
	"tokenPivaSecondLine": func(t *fixed.RateTable) *decimal.Decimal { return &t.TokenPIvaSecondLine },
	"netflixStandard":     func(t *fixed.RateTable) *decimal.Decimal { return &t.NetflixStandard },
	"netflixPremium":      func(t *fixed.RateTable) *decimal.Decimal { return &t.NetflixPremium },
	"convergenceBonus":    func(t *fixed.RateTable) *decimal.Decimal { return &t.ConvergenceBonus },
	"lineaAttiva":         func(t *fixed.RateTable) *decimal.Decimal { return &t.LineaAttiva },
	"smartHomeAddon":      func(t *fixed.RateTable) *decimal.Decimal { return &t.SmartHomeAddon },
	"migration":           func(t *fixed.RateTable) *decimal.Decimal { return &t.Migration },
}

func mergeFixed(out *RateTables, o *FixedOverride) {
	if o == nil {
		return
	}
	if len(o.Multipliers) > 0 {
		out.FixedMultipliers = generic.MultipliersOf(o.Multipliers...)
	}
	for cat, w := range o.PointWeights {
		out.Fixed.PointWeights[cat] = generic.Dec(w)
	}
	for key, v := range o.Rates {
		*fixedRateFields[key](&out.Fixed) = generic.Dec(v)
	}
	if len(o.UnlimitedCallsFactor) > 0 {
		out.Fixed.UnlimitedCallsFactor = generic.TierTableOf(o.UnlimitedCallsFactor...)
	}
	if len(o.PostalBillToken) > 0 {
		out.Fixed.PostalBillToken = generic.TierTableOf(o.PostalBillToken...)
	}
}

func mergeLadder(card generic.RateCard, bonuses *generic.Bonuses, o *LadderOverride) {
	for cat, r := range o.Rates {
		card[cat] = generic.Dec(r)
	}
	if len(o.Bonuses) > 0 {
		*bonuses = bonusLadder(o.Bonuses)
	}
}

func mergeInsurance(out *RateTables, o *InsuranceOverride) {
	if o == nil {
		return
	}
	for cat, p := range o.Products {
		out.Insurance.Products[cat] = insurance.Product{PointWeight: generic.Dec(p.PointWeight), Rate: generic.Dec(p.Rate)}
	}
	if o.ViaggioPointsPer100 != nil {
		out.Insurance.ViaggioPointsPer100 = generic.Dec(*o.ViaggioPointsPer100)
	}
	if o.ViaggioPremiumShare != nil {
		out.Insurance.ViaggioPremiumShare = generic.Dec(*o.ViaggioPremiumShare)
	}
	if o.ViaggioCap != nil {
		out.Insurance.ViaggioCap = generic.Dec(*o.ViaggioCap)
	}
	if o.ReloadEventsPerPoint != nil {
		out.Insurance.ReloadEventsPerPoint = *o.ReloadEventsPerPoint
	}
	if o.ReloadRate != nil {
		out.Insurance.ReloadRate = generic.Dec(*o.ReloadRate)
	}
	if len(o.Bonuses) > 0 {
		out.InsuranceBonuses = bonusLadder(o.Bonuses)
	}
}

func mergeExtraVAT(out *RateTables, o *ExtraVATOverride) {
	if o == nil {
		return
	}
	for track, cats := range o.Weights {
		id := generic.TrackID(track)
		if out.ExtraVAT.Weights[id] == nil {
			out.ExtraVAT.Weights[id] = make(map[string]decimal.Decimal)
		}
		for cat, w := range cats {
			out.ExtraVAT.Weights[id][cat] = generic.Dec(w)
		}
	}
	for p, th := range o.BaseThresholds {
		out.ExtraVAT.BaseThresholds[extravat.Profile(p)] = thresholdsOf(th)
	}
	for c, rates := range o.Rates {
		out.ExtraVAT.Rates[network.PIvaClass(c)] = generic.TierTableOf(rates...)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func thresholdsOf(v []float64) generic.Thresholds {
	return generic.ThresholdsOf(v...)
}

// sortedKeys keeps validation errors deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
