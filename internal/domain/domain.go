// Package domain re-exports the persisted types of the ingestion and
// consolidation core at a flat import path, so repository and service
// packages can depend on `domain.X` without reaching into the
// sub-package that actually owns the struct.
package domain

import (
	"github.com/yungbote/neurobridge-backend/internal/domain/jobs"
	"github.com/yungbote/neurobridge-backend/internal/domain/materials"
)

// Document pipeline: parsed structure, chunks, and raw media backrefs.
type MaterialSet = materials.MaterialSet
type MaterialSetFile = materials.MaterialSetFile
type MaterialFile = materials.MaterialFile
type MaterialFileSignature = materials.MaterialFileSignature
type MaterialFileSection = materials.MaterialFileSection
type MaterialChunk = materials.MaterialChunk
type MaterialAsset = materials.MaterialAsset
type MaterialSetSummary = materials.MaterialSetSummary
type Segment = materials.Segment

// Proto/canonical concepts, topics, and concept-graph edges.
type MaterialEntity = materials.MaterialEntity
type MaterialEntityPromotion = materials.MaterialEntityPromotion
type GlobalEntity = materials.GlobalEntity
type GlobalConceptCoverage = materials.GlobalConceptCoverage
type MaterialChunkEntity = materials.MaterialChunkEntity
type MaterialSetConceptCoverage = materials.MaterialSetConceptCoverage

// Claims, assertions, and their evidence linkage.
type ClaimFormKind = materials.ClaimFormKind
type ClaimAuthority = materials.ClaimAuthority

const (
	ClaimFormNumeric = materials.ClaimFormNumeric
	ClaimFormRange   = materials.ClaimFormRange
	ClaimFormEnum    = materials.ClaimFormEnum
	ClaimFormBoolean = materials.ClaimFormBoolean
	ClaimFormText    = materials.ClaimFormText

	AuthorityHigh   = materials.AuthorityHigh
	AuthorityMedium = materials.AuthorityMedium
	AuthorityLow    = materials.AuthorityLow
)

type MaterialClaim = materials.MaterialClaim
type MaterialChunkClaim = materials.MaterialChunkClaim
type MaterialClaimConcept = materials.MaterialClaimConcept
type MaterialClaimEntity = materials.MaterialClaimEntity

// Tenant ontology (canonicalization fast path; survives purges).
type OntologyEntity = materials.OntologyEntity
type OntologyAlias = materials.OntologyAlias

// Marker normalization and assertion semantics.
type MarkerMention = materials.MarkerMention
type CanonicalMarker = materials.CanonicalMarker
type MarkerStatus = materials.MarkerStatus
type Assertion = materials.Assertion
type Polarity = materials.Polarity
type AssertionScope = materials.AssertionScope

const (
	MarkerResolved    = materials.MarkerResolved
	MarkerUnresolved  = materials.MarkerUnresolved
	MarkerBlacklisted = materials.MarkerBlacklisted

	PolarityAffirmed = materials.PolarityAffirmed
	PolarityNegated  = materials.PolarityNegated
	PolarityHedged   = materials.PolarityHedged
	PolarityAbsent   = materials.PolarityAbsent
	PolarityUnknown  = materials.PolarityUnknown

	ScopeGeneral     = materials.ScopeGeneral
	ScopeConstrained = materials.ScopeConstrained
	ScopeUnknown     = materials.ScopeUnknown
)

func PtrFloat(v float64) *float64 { return materials.PtrFloat(v) }

// Pass lifecycle and archive sagas.
type JobRun = jobs.JobRun
type JobRunEvent = jobs.JobRunEvent
type SagaRun = jobs.SagaRun
type SagaAction = jobs.SagaAction
