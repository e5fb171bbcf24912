package repos

import (
	"github.com/yungbote/neurobridge-backend/internal/data/repos/jobs"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/materials"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type MaterialSetRepo = materials.MaterialSetRepo
type MaterialSetFileRepo = materials.MaterialSetFileRepo
type MaterialFileRepo = materials.MaterialFileRepo
type MaterialFileSignatureRepo = materials.MaterialFileSignatureRepo
type MaterialFileSectionRepo = materials.MaterialFileSectionRepo
type MaterialChunkRepo = materials.MaterialChunkRepo
type MaterialAssetRepo = materials.MaterialAssetRepo
type MaterialSetSummaryRepo = materials.MaterialSetSummaryRepo

type MaterialEntityRepo = materials.MaterialEntityRepo
type MaterialEntityPromotionRepo = materials.MaterialEntityPromotionRepo
type GlobalEntityRepo = materials.GlobalEntityRepo
type GlobalConceptCoverageRepo = materials.GlobalConceptCoverageRepo
type MaterialChunkEntityRepo = materials.MaterialChunkEntityRepo
type MaterialChunkClaimRepo = materials.MaterialChunkClaimRepo
type MaterialClaimRepo = materials.MaterialClaimRepo
type MaterialClaimConceptRepo = materials.MaterialClaimConceptRepo
type MaterialClaimEntityRepo = materials.MaterialClaimEntityRepo
type MaterialSetConceptCoverageRepo = materials.MaterialSetConceptCoverageRepo
type OntologyRepo = materials.OntologyRepo
type MarkerRepo = materials.MarkerRepo
type AssertionRepo = materials.AssertionRepo

type JobRunRepo = jobs.JobRunRepo
type SagaRunRepo = jobs.SagaRunRepo
type SagaActionRepo = jobs.SagaActionRepo

func NewMaterialSetRepo(db *gorm.DB, baseLog *logger.Logger) MaterialSetRepo {
	return materials.NewMaterialSetRepo(db, baseLog)
}
func NewMaterialSetFileRepo(db *gorm.DB, baseLog *logger.Logger) MaterialSetFileRepo {
	return materials.NewMaterialSetFileRepo(db, baseLog)
}
func NewMaterialFileRepo(db *gorm.DB, baseLog *logger.Logger) MaterialFileRepo {
	return materials.NewMaterialFileRepo(db, baseLog)
}
func NewMaterialFileSignatureRepo(db *gorm.DB, baseLog *logger.Logger) MaterialFileSignatureRepo {
	return materials.NewMaterialFileSignatureRepo(db, baseLog)
}
func NewMaterialFileSectionRepo(db *gorm.DB, baseLog *logger.Logger) MaterialFileSectionRepo {
	return materials.NewMaterialFileSectionRepo(db, baseLog)
}
func NewMaterialChunkRepo(db *gorm.DB, baseLog *logger.Logger) MaterialChunkRepo {
	return materials.NewMaterialChunkRepo(db, baseLog)
}
func NewMaterialAssetRepo(db *gorm.DB, baseLog *logger.Logger) MaterialAssetRepo {
	return materials.NewMaterialAssetRepo(db, baseLog)
}
func NewMaterialSetSummaryRepo(db *gorm.DB, baseLog *logger.Logger) MaterialSetSummaryRepo {
	return materials.NewMaterialSetSummaryRepo(db, baseLog)
}

func NewMaterialEntityRepo(db *gorm.DB, baseLog *logger.Logger) MaterialEntityRepo {
	return materials.NewMaterialEntityRepo(db, baseLog)
}
func NewMaterialEntityPromotionRepo(db *gorm.DB, baseLog *logger.Logger) MaterialEntityPromotionRepo {
	return materials.NewMaterialEntityPromotionRepo(db, baseLog)
}
func NewGlobalEntityRepo(db *gorm.DB, baseLog *logger.Logger) GlobalEntityRepo {
	return materials.NewGlobalEntityRepo(db, baseLog)
}
func NewGlobalConceptCoverageRepo(db *gorm.DB, baseLog *logger.Logger) GlobalConceptCoverageRepo {
	return materials.NewGlobalConceptCoverageRepo(db, baseLog)
}
func NewMaterialChunkEntityRepo(db *gorm.DB, baseLog *logger.Logger) MaterialChunkEntityRepo {
	return materials.NewMaterialChunkEntityRepo(db, baseLog)
}
func NewMaterialChunkClaimRepo(db *gorm.DB, baseLog *logger.Logger) MaterialChunkClaimRepo {
	return materials.NewMaterialChunkClaimRepo(db, baseLog)
}
func NewMaterialClaimRepo(db *gorm.DB, baseLog *logger.Logger) MaterialClaimRepo {
	return materials.NewMaterialClaimRepo(db, baseLog)
}
func NewMaterialClaimConceptRepo(db *gorm.DB, baseLog *logger.Logger) MaterialClaimConceptRepo {
	return materials.NewMaterialClaimConceptRepo(db, baseLog)
}
func NewMaterialClaimEntityRepo(db *gorm.DB, baseLog *logger.Logger) MaterialClaimEntityRepo {
	return materials.NewMaterialClaimEntityRepo(db, baseLog)
}
func NewMaterialSetConceptCoverageRepo(db *gorm.DB, baseLog *logger.Logger) MaterialSetConceptCoverageRepo {
	return materials.NewMaterialSetConceptCoverageRepo(db, baseLog)
}
func NewOntologyRepo(db *gorm.DB, baseLog *logger.Logger) OntologyRepo {
	return materials.NewOntologyRepo(db, baseLog)
}
func NewMarkerRepo(db *gorm.DB, baseLog *logger.Logger) MarkerRepo {
	return materials.NewMarkerRepo(db, baseLog)
}
func NewAssertionRepo(db *gorm.DB, baseLog *logger.Logger) AssertionRepo {
	return materials.NewAssertionRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
func NewSagaRunRepo(db *gorm.DB, baseLog *logger.Logger) SagaRunRepo {
	return jobs.NewSagaRunRepo(db, baseLog)
}
func NewSagaActionRepo(db *gorm.DB, baseLog *logger.Logger) SagaActionRepo {
	return jobs.NewSagaActionRepo(db, baseLog)
}
