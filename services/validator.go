package services

import (
	"fmt"

	"card-grading-api/config"
	"card-grading-api/models"
)

// TransitionPayload carries the optional data a transition may write. Which
// fields are mandatory is declared per edge in the catalog; fields outside an
// edge's contract are never persisted.
type TransitionPayload struct {
	ReturnMethod       *string  `json:"return_method,omitempty"`
	Grade              *float64 `json:"grade,omitempty"`
	GradeCorners       *float64 `json:"grade_corners,omitempty"`
	GradeEdges         *float64 `json:"grade_edges,omitempty"`
	GradeSurface       *float64 `json:"grade_surface,omitempty"`
	GradeCentering     *float64 `json:"grade_centering,omitempty"`
	TrackingProvider   *string  `json:"tracking_provider,omitempty"`
	TrackingNumber     *string  `json:"tracking_number,omitempty"`
	DeliveryAddress    *string  `json:"delivery_address,omitempty"`
	SlabbingProofImage *string  `json:"slabbing_proof_image,omitempty"`
	TxHash             *string  `json:"tx_hash,omitempty"`
}

func (p *TransitionPayload) has(field string) bool {
	switch field {
	case FieldReturnMethod:
		return p.ReturnMethod != nil && *p.ReturnMethod != ""
	case FieldGrade:
		return p.Grade != nil
	case FieldGradeCorners:
		return p.GradeCorners != nil
	case FieldGradeEdges:
		return p.GradeEdges != nil
	case FieldGradeSurface:
		return p.GradeSurface != nil
	case FieldGradeCentering:
		return p.GradeCentering != nil
	case FieldTrackingProvider:
		return p.TrackingProvider != nil && *p.TrackingProvider != ""
	case FieldTrackingNumber:
		return p.TrackingNumber != nil && *p.TrackingNumber != ""
	case FieldDeliveryAddress:
		return p.DeliveryAddress != nil && *p.DeliveryAddress != ""
	case FieldSlabbingProofImage:
		return p.SlabbingProofImage != nil && *p.SlabbingProofImage != ""
	case FieldTxHash:
		return p.TxHash != nil && *p.TxHash != ""
	}
	return false
}

func (p *TransitionPayload) gradeValue(field string) *float64 {
	switch field {
	case FieldGrade:
		return p.Grade
	case FieldGradeCorners:
		return p.GradeCorners
	case FieldGradeEdges:
		return p.GradeEdges
	case FieldGradeSurface:
		return p.GradeSurface
	case FieldGradeCentering:
		return p.GradeCentering
	}
	return nil
}

// ResolvedTransition is the validator's verdict: the edge to apply and the
// effective return method after this transition (empty if still unset).
type ResolvedTransition struct {
	Edge         Edge
	ReturnMethod string
}

// TransitionValidator checks transition legality against the catalog and the
// per-edge payload contracts. It performs no I/O.
type TransitionValidator struct {
	scale config.GradeScale
}

func NewTransitionValidator(scale config.GradeScale) *TransitionValidator {
	return &TransitionValidator{scale: scale}
}

// Validate decides whether sub may move to targetStatus with the given
// payload. While the submission is in Authentication in Progress the target
// is derived from authResult; a caller-supplied target must then agree with
// the derived one.
func (v *TransitionValidator) Validate(sub *models.Submission, targetStatus string, payload *TransitionPayload, authResult string) (*ResolvedTransition, error) {
	if sub.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", ErrTerminalState, sub.Status)
	}
	if !IsValidStatus(sub.Status) {
		return nil, fmt.Errorf("%w: submission is in unknown status %q", ErrInvalidTransition, sub.Status)
	}

	var edge Edge
	if sub.Status == models.StatusAuthentication {
		if authResult == "" {
			return nil, fmt.Errorf("%w: auth_result", ErrMissingPayloadField)
		}
		resolved, ok := EdgeForAuthResult(authResult)
		if !ok {
			return nil, fmt.Errorf("%w: unknown authentication result %q", ErrInvalidTransition, authResult)
		}
		if targetStatus != "" && targetStatus != resolved.To {
			return nil, fmt.Errorf("%w: authentication result %q leads to %q, not %q",
				ErrInvalidTransition, authResult, resolved.To, targetStatus)
		}
		edge = resolved
	} else {
		if targetStatus == "" {
			return nil, fmt.Errorf("%w: target_status", ErrMissingPayloadField)
		}
		if targetStatus == sub.Status {
			// Double-submits are surfaced, not silently accepted.
			return nil, fmt.Errorf("%w: submission is already in status %q", ErrInvalidTransition, sub.Status)
		}
		if !IsValidStatus(targetStatus) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, targetStatus)
		}
		found, ok := FindEdge(sub.Status, targetStatus)
		if !ok {
			return nil, fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidTransition, sub.Status, targetStatus)
		}
		edge = found
	}

	method, err := v.resolveReturnMethod(sub, edge, payload)
	if err != nil {
		return nil, err
	}

	for _, field := range edge.RequiredFields {
		if field == FieldReturnMethod && method != "" {
			// Satisfied by the stored value when the payload omits it.
			continue
		}
		if !payload.has(field) {
			return nil, fmt.Errorf("%w: %s", ErrMissingPayloadField, field)
		}
	}

	for _, field := range GradeFields {
		value := payload.gradeValue(field)
		if value == nil {
			continue
		}
		if !v.scale.Contains(*value) {
			return nil, fmt.Errorf("%w: %s must be between %g and %g in increments of %g",
				ErrMissingPayloadField, field, v.scale.Min, v.scale.Max, v.scale.Step)
		}
	}

	return &ResolvedTransition{Edge: edge, ReturnMethod: method}, nil
}

// resolveReturnMethod reconciles the stored return method with the payload
// and the branch the requested edge belongs to. The method is write-once: a
// payload value that contradicts the stored one is rejected.
func (v *TransitionValidator) resolveReturnMethod(sub *models.Submission, edge Edge, payload *TransitionPayload) (string, error) {
	stored := ""
	if sub.ReturnMethod != nil {
		stored = *sub.ReturnMethod
	}

	supplied := ""
	if payload.ReturnMethod != nil && *payload.ReturnMethod != "" {
		supplied = *payload.ReturnMethod
		if supplied != models.ReturnMethodPickup && supplied != models.ReturnMethodDelivery {
			return "", fmt.Errorf("%w: unknown return method %q", ErrInvalidTransition, supplied)
		}
	}

	if stored != "" && supplied != "" && stored != supplied {
		return "", fmt.Errorf("%w: return method is already set to %q", ErrInvalidTransition, stored)
	}

	effective := stored
	if effective == "" {
		effective = supplied
	}

	if edge.ReturnMethod != "" && effective != "" && effective != edge.ReturnMethod {
		return "", fmt.Errorf("%w: return method %q does not lead to %q",
			ErrInvalidTransition, effective, edge.To)
	}

	return effective, nil
}
