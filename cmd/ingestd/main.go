// ingestd is the worker entrypoint of the ingestion and consolidation
// core: a bounded pool of goroutines pulling document tasks off the
// external queue, each running the sequential per-document passes. Passes
// within a document are ordered; documents across the pool are fully
// parallel, and one document's failure never cascades to another.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/neurobridge-backend/internal/data/graph"
	materialrepos "github.com/yungbote/neurobridge-backend/internal/data/repos/materials"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/canonical"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/claim"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/consolidate"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/extractor"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/marker"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/pipeline"
	"github.com/yungbote/neurobridge-backend/internal/ingestion/topic"
	"github.com/yungbote/neurobridge-backend/internal/llm"
	"github.com/yungbote/neurobridge-backend/internal/lock"
	"github.com/yungbote/neurobridge-backend/internal/observability"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/neo4jdb"
	"github.com/yungbote/neurobridge-backend/internal/platform/qdrant"
	"github.com/yungbote/neurobridge-backend/internal/vectorstore"
)

const taskQueueKey = "ingest:documents"

// DocumentTask is one unit of work from the external queue.
type DocumentTask struct {
	DocID    uuid.UUID `json:"doc_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	// CachedPath points at a cached ParsedDocument JSON on shared disk.
	CachedPath string `json:"cached_path"`
}

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "purge" {
		err = runPurge(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingestd: %v\n", err)
		os.Exit(1)
	}
}

// purgeLabels is every derived graph label a tenant purge removes. The
// ontology catalog (OntologyEntity/OntologyAlias/DomainContextProfile) is
// deliberately absent; PurgeTenant refuses it even if listed.
var purgeLabels = []string{
	"TypeAwareChunk", "DocItem", "PageContext",
	"Topic", "ProtoConcept", "CanonicalConcept",
	"SectionContext", "MaterialFile", "DocumentVersion",
}

// runPurge is the maintenance entrypoint: `ingestd purge <tenant-id>`
// deletes a tenant's derived graph while preserving the ontology labels.
func runPurge(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: ingestd purge <tenant-id>")
	}
	tenantID, err := uuid.Parse(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("parse tenant id: %w", err)
	}

	log, err := logger.New(envOr("LOG_MODE", "prod"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	client, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		return fmt.Errorf("connect neo4j: %w", err)
	}
	if client == nil {
		return fmt.Errorf("NEO4J_URI required for purge")
	}
	defer client.Close(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deleted, err := graph.PurgeTenant(ctx, client, log, tenantID, purgeLabels)
	if err != nil {
		return err
	}
	log.Info("tenant graph purged", "tenant_id", tenantID, "nodes_deleted", deleted)
	return nil
}

func run() error {
	log, err := logger.New(envOr("LOG_MODE", "prod"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if shutdown := observability.Init(ctx, log, "ingestd"); shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	db, err := gorm.Open(postgres.Open(os.Getenv("POSTGRES_DSN")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	graph, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		return fmt.Errorf("connect neo4j: %w", err)
	}
	if graph != nil {
		defer graph.Close(context.Background())
	}

	locker, err := lock.NewRedisLocker(log, os.Getenv("REDIS_ADDR"))
	if err != nil {
		// Lock loss degrades to read-after-write dedup; it is not fatal.
		log.Warn("redis locker unavailable, canonicalization runs unlocked", "error", err)
		locker = nil
	}

	llmClient, err := llm.NewClient(log)
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}
	if llmClient == nil {
		log.Warn("no LLM configured, canonicalization uses deterministic fallback only")
	}

	chunkRepo := materialrepos.NewMaterialChunkRepo(db, log)
	fileRepo := materialrepos.NewMaterialFileRepo(db, log)
	sectionRepo := materialrepos.NewMaterialFileSectionRepo(db, log)
	entityRepo := materialrepos.NewMaterialEntityRepo(db, log)
	chunkEntityRepo := materialrepos.NewMaterialChunkEntityRepo(db, log)
	chunkClaimRepo := materialrepos.NewMaterialChunkClaimRepo(db, log)
	globalRepo := materialrepos.NewGlobalEntityRepo(db, log)
	promotionRepo := materialrepos.NewMaterialEntityPromotionRepo(db, log)
	coverageRepo := materialrepos.NewMaterialSetConceptCoverageRepo(db, log)
	ontologyRepo := materialrepos.NewOntologyRepo(db, log)
	markerRepo := materialrepos.NewMarkerRepo(db, log)
	assertionRepo := materialrepos.NewAssertionRepo(db, log)

	store, err := consolidate.NewStore(log, db, globalRepo, promotionRepo, graph)
	if err != nil {
		return err
	}
	canonicalizer, err := canonical.New(log, canonical.NewRepoOntology(db, ontologyRepo), llmClient, store, locker, canonical.Config{
		FailureThreshold: envInt("CANONICAL_BREAKER_THRESHOLD", 5),
		RecoveryTimeout:  time.Duration(envInt("CANONICAL_BREAKER_RECOVERY_SECONDS", 60)) * time.Second,
	})
	if err != nil {
		return err
	}
	normalizer, err := marker.NewNormalizer(log, marker.NewRepoCanonicalWriter(db, markerRepo), marker.NewGraphAnchorSource(graph))
	if err != nil {
		return err
	}
	markerConfigs := marker.NewConfigCache(envOr("MARKER_CONFIG_DIR", "./config/markers"))
	rollupRepo := materialrepos.NewGlobalConceptCoverageRepo(db, log)
	topicBuilder, err := topic.NewBuilder(log, db, coverageRepo, rollupRepo, graph)
	if err != nil {
		return err
	}
	ext := extractor.New(db, log, chunkRepo, fileRepo, sectionRepo)

	var vectors vectorstore.Store
	vectorDim := 0
	if qcfg, err := qdrant.ResolveConfigFromEnv(); err == nil && qcfg.URL != "" {
		vs, vsErr := qdrant.NewVectorStore(log, qcfg)
		if vsErr != nil {
			log.Warn("vector store unavailable, chunks stay unindexed", "error", vsErr)
		} else {
			vectors = vs
			vectorDim = qcfg.VectorDim
		}
	} else {
		log.Warn("no vector store configured, chunks stay unindexed")
	}

	claimExtractor, err := claim.NewExtractor(log, llmClient)
	if err != nil {
		return err
	}
	claimRepo := materialrepos.NewMaterialClaimRepo(db, log)

	setRepo := materialrepos.NewMaterialSetRepo(db, log)
	pipe, err := pipeline.New(log, db, ext, canonicalizer, store, normalizer, markerConfigs, topicBuilder,
		fileRepo, setRepo, entityRepo, chunkEntityRepo, markerRepo, assertionRepo, vectors, vectorDim,
		claimExtractor, claimRepo, chunkClaimRepo)
	if err != nil {
		return err
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: envOr("REDIS_ADDR", "localhost:6379")})
	defer rdb.Close()

	poolSize := envInt("WORKER_POOL_SIZE", 4)
	tasks := make(chan DocumentTask)

	var g errgroup.Group
	for i := 0; i < poolSize; i++ {
		workerLog := log.With("worker", i)
		g.Go(func() error {
			for task := range tasks {
				if err := runTask(ctx, pipe, task); err != nil {
					// Per-document failure: record and move on.
					workerLog.Error("document ingestion failed", "doc_id", task.DocID, "error", err)
					continue
				}
				workerLog.Info("document ingested", "doc_id", task.DocID)
			}
			return nil
		})
	}

	log.Info("ingestd started", "pool_size", poolSize, "queue", taskQueueKey)
	feedErr := feedTasks(ctx, log, rdb, tasks)
	close(tasks)
	_ = g.Wait()
	if feedErr != nil && !errors.Is(feedErr, context.Canceled) {
		return feedErr
	}
	return nil
}

// feedTasks blocks on the external queue and hands tasks to the pool until
// the context is cancelled.
func feedTasks(ctx context.Context, log *logger.Logger, rdb *goredis.Client, tasks chan<- DocumentTask) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := rdb.BLPop(ctx, 5*time.Second, taskQueueKey).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("queue read failed, backing off", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}
		if len(res) != 2 {
			continue
		}
		var task DocumentTask
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			log.Warn("malformed task dropped", "error", err)
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tasks <- task:
		}
	}
}

func runTask(ctx context.Context, pipe *pipeline.Pipeline, task DocumentTask) error {
	doc := pipeline.ParsedDocument{DocID: task.DocID, TenantID: task.TenantID}
	if task.CachedPath != "" {
		raw, err := os.ReadFile(task.CachedPath)
		if err != nil {
			return fmt.Errorf("read cached parse: %w", err)
		}
		cached, err := pipeline.DecodeCached(raw)
		if err != nil {
			return err
		}
		cached.DocID = task.DocID
		cached.TenantID = task.TenantID
		doc = cached
	}
	return pipe.Run(ctx, doc)
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
