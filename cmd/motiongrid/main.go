// Command motiongrid runs the motion detection engine over a recorded
// frame log and persists per-frame results to SQLite.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/banshee-data/motiongrid/internal/config"
	"github.com/banshee-data/motiongrid/internal/db"
	"github.com/banshee-data/motiongrid/internal/motion"
	"github.com/banshee-data/motiongrid/internal/replay"
	"github.com/banshee-data/motiongrid/internal/storage/sqlite"
	"github.com/banshee-data/motiongrid/internal/version"
	"github.com/banshee-data/motiongrid/internal/voxmap"
)

var (
	inputPath   = flag.String("input", "", "Frame log to replay (x,y,z lines, blank line per frame)")
	dbPath      = flag.String("db", "motiongrid.db", "SQLite database path (\":memory:\" for none on disk)")
	configPath  = flag.String("config", "", "Tuning config JSON (omitted fields keep defaults)")
	sensorID    = flag.String("sensor", "default", "Sensor ID recorded with the run")
	maxFrames   = flag.Int("max-frames", 0, "Stop after N frames (0 = all)")
	verbose     = flag.Bool("verbose", false, "Log per-frame summaries")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("motiongrid %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *inputPath == "" {
		log.Fatal("-input is required")
	}

	if *verbose {
		motion.SetLogWriters(os.Stderr, os.Stderr, nil)
	} else {
		motion.SetLogWriters(os.Stderr, nil, nil)
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		tuning = loaded
	}

	if err := run(tuning); err != nil {
		log.Fatal(err)
	}
}

func run(tuning *config.TuningConfig) error {
	f, err := os.Open(*inputPath)
	if err != nil {
		return fmt.Errorf("open frame log: %w", err)
	}
	defer f.Close()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()
	store := sqlite.NewDetectionRunStore(database.DB)

	layer, err := voxmap.NewLayer(tuning.GetVoxelSize(), tuning.GetVoxelsPerSide())
	if err != nil {
		return fmt.Errorf("create voxel layer: %w", err)
	}
	integrator := voxmap.NewIntegrator(layer, tuning.IntegratorConfig())

	detector, err := motion.NewMotionDetector(tuning.MotionConfig(), layer)
	if err != nil {
		return fmt.Errorf("create detector: %w", err)
	}

	paramsJSON, err := json.Marshal(tuning)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	runRecord := &sqlite.DetectionRun{
		SensorID:   *sensorID,
		Source:     *inputPath,
		ParamsJSON: paramsJSON,
	}
	if err := store.StartRun(runRecord); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	log.Printf("Run %s started: input=%s sensor=%s", runRecord.RunID, *inputPath, *sensorID)

	reader := replay.NewFrameReader(f)
	var frameCount, totalDynamic int64
	for {
		points, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		integrator.IntegrateCloud(points)
		result := detector.ProcessFrameDetailed(points)
		frameCount++
		dynamic := motion.CountDynamic(result.Classifications)
		totalDynamic += int64(dynamic)

		if err := persistFrame(store, runRecord.RunID, points, result); err != nil {
			return err
		}
		if *verbose {
			log.Printf("Frame %d: %d points, %d dynamic, %d clusters (%v)",
				result.FrameCounter, len(points), dynamic, len(result.Clusters), result.ProcessingTime)
		}
		if *maxFrames > 0 && frameCount >= int64(*maxFrames) {
			break
		}
	}

	if err := store.FinishRun(runRecord.RunID, time.Now().UnixNano(), frameCount, totalDynamic); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	log.Printf("Run %s complete: %d frames, %d dynamic points", runRecord.RunID, frameCount, totalDynamic)
	return nil
}

func persistFrame(store *sqlite.DetectionRunStore, runID string, points []motion.Point, result *motion.FrameResult) error {
	stats := &sqlite.FrameStats{
		RunID:            runID,
		FrameCounter:     result.FrameCounter,
		TotalPoints:      len(points),
		EverFreePoints:   motion.CountEverFreeDynamic(result.Classifications),
		DynamicPoints:    motion.CountDynamic(result.Classifications),
		ClusterCount:     len(result.Clusters),
		ProcessingTimeUs: result.ProcessingTime.Microseconds(),
	}
	if err := store.InsertFrameStats(stats); err != nil {
		return fmt.Errorf("persist frame stats: %w", err)
	}

	clusters := make([]sqlite.DynamicCluster, 0, len(result.Clusters))
	for i, pc := range result.Clusters {
		cs := motion.ComputeClusterStats(points, pc)
		clusters = append(clusters, sqlite.DynamicCluster{
			RunID:        runID,
			FrameCounter: result.FrameCounter,
			ClusterIndex: i,
			PointsCount:  cs.PointsCount,
			CentroidX:    cs.Centroid[0],
			CentroidY:    cs.Centroid[1],
			CentroidZ:    cs.Centroid[2],
			ExtentX:      cs.Extent[0],
			ExtentY:      cs.Extent[1],
			ExtentZ:      cs.Extent[2],
		})
	}
	if err := store.InsertClusters(clusters); err != nil {
		return fmt.Errorf("persist clusters: %w", err)
	}
	return nil
}
