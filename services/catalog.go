package services

import "card-grading-api/models"

// Payload field names as they appear in transition requests. Error messages
// reference these keys so callers know exactly what to supply.
const (
	FieldReturnMethod       = "return_method"
	FieldGrade              = "grade"
	FieldGradeCorners       = "grade_corners"
	FieldGradeEdges         = "grade_edges"
	FieldGradeSurface       = "grade_surface"
	FieldGradeCentering     = "grade_centering"
	FieldTrackingProvider   = "tracking_provider"
	FieldTrackingNumber     = "tracking_number"
	FieldDeliveryAddress    = "delivery_address"
	FieldSlabbingProofImage = "slabbing_proof_image"
	FieldTxHash             = "tx_hash"
)

// GradeFields are the scores written during Grading Assigned -> Slabbing,
// overall grade first.
var GradeFields = []string{
	FieldGrade,
	FieldGradeCorners,
	FieldGradeEdges,
	FieldGradeSurface,
	FieldGradeCentering,
}

var deliveryOnlyFields = []string{
	FieldTrackingProvider,
	FieldTrackingNumber,
	FieldDeliveryAddress,
}

// Edge describes one legal transition: the payload fields it demands, the
// return-method branch it belongs to (empty for trunk edges), and whether it
// must be recorded on the external ledger before the local commit.
type Edge struct {
	From string
	To   string

	// RequiredFields must all be present in the payload.
	RequiredFields []string
	// OptionalFields may be supplied and are persisted if present.
	OptionalFields []string
	// ClearFields are wiped on this edge even if the payload carries them.
	ClearFields []string

	// ReturnMethod constrains the edge to one branch after Ready for Return.
	ReturnMethod string

	// AuthResult is the authentication outcome that selects this edge.
	AuthResult string

	// RequiresLedgerWrite gates the edge on a confirmed chain write.
	RequiresLedgerWrite bool
}

// edges is the whole catalog. Immutable process-wide configuration; nothing
// mutates it after init.
var edges = []Edge{
	{
		From:           models.StatusSubmitted,
		To:             models.StatusAuthentication,
		OptionalFields: []string{FieldTxHash},
	},
	{
		From:           models.StatusAuthentication,
		To:             models.StatusConditionInspection,
		AuthResult:     models.AuthResultAuthentic,
		OptionalFields: []string{FieldTxHash},
	},
	{
		From:           models.StatusAuthentication,
		To:             models.StatusRejectedCounterfeit,
		AuthResult:     models.AuthResultFake,
		OptionalFields: []string{FieldTxHash},
	},
	{
		From:           models.StatusConditionInspection,
		To:             models.StatusGradingAssigned,
		OptionalFields: []string{FieldTxHash},
	},
	{
		From:                models.StatusGradingAssigned,
		To:                  models.StatusSlabbing,
		RequiredFields:      GradeFields,
		OptionalFields:      []string{FieldTxHash},
		RequiresLedgerWrite: true,
	},
	{
		From:           models.StatusSlabbing,
		To:             models.StatusReadyForReturn,
		RequiredFields: []string{FieldSlabbingProofImage},
		OptionalFields: []string{FieldReturnMethod, FieldTxHash},
	},
	{
		From:           models.StatusReadyForReturn,
		To:             models.StatusShipped,
		ReturnMethod:   models.ReturnMethodDelivery,
		RequiredFields: []string{FieldReturnMethod, FieldTrackingProvider, FieldTrackingNumber, FieldDeliveryAddress},
		OptionalFields: []string{FieldTxHash},
	},
	{
		From:           models.StatusReadyForReturn,
		To:             models.StatusReadyForPickup,
		ReturnMethod:   models.ReturnMethodPickup,
		RequiredFields: []string{FieldReturnMethod},
		ClearFields:    deliveryOnlyFields,
		OptionalFields: []string{FieldTxHash},
	},
	{
		From:           models.StatusShipped,
		To:             models.StatusDelivered,
		ReturnMethod:   models.ReturnMethodDelivery,
		OptionalFields: []string{FieldTxHash},
	},
	{
		From:           models.StatusDelivered,
		To:             models.StatusCompleted,
		ReturnMethod:   models.ReturnMethodDelivery,
		OptionalFields: []string{FieldTxHash},
	},
	{
		From:           models.StatusReadyForPickup,
		To:             models.StatusCompleted,
		ReturnMethod:   models.ReturnMethodPickup,
		OptionalFields: []string{FieldTxHash},
	},
}

var terminalStatuses = map[string]bool{
	models.StatusCompleted:           true,
	models.StatusRejectedCounterfeit: true,
}

var allStatuses = buildStatusSet()

func buildStatusSet() map[string]bool {
	set := make(map[string]bool)
	for _, e := range edges {
		set[e.From] = true
		set[e.To] = true
	}
	return set
}

// IsValidStatus reports whether name is part of the catalog.
func IsValidStatus(name string) bool {
	return allStatuses[name]
}

// IsTerminal reports whether no transition may leave the given status.
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// NextStatuses returns the statuses the given state may legally move to.
// Once a return method is chosen, only edges of that branch (or trunk edges)
// remain reachable.
func NextStatuses(current, returnMethod string) []string {
	var next []string
	for _, e := range edges {
		if e.From != current {
			continue
		}
		if e.ReturnMethod != "" && returnMethod != "" && e.ReturnMethod != returnMethod {
			continue
		}
		next = append(next, e.To)
	}
	return next
}

// FindEdge looks up the catalog edge from -> to.
func FindEdge(from, to string) (Edge, bool) {
	for _, e := range edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// EdgeForAuthResult resolves the edge leaving Authentication in Progress for
// the given authentication outcome.
func EdgeForAuthResult(result string) (Edge, bool) {
	for _, e := range edges {
		if e.From == models.StatusAuthentication && e.AuthResult == result {
			return e, true
		}
	}
	return Edge{}, false
}
