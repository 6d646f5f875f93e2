package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oggyb/intro-match/internal/config"
	"github.com/oggyb/intro-match/internal/db"
	"github.com/oggyb/intro-match/internal/engine"
	"github.com/oggyb/intro-match/internal/logger"
	"github.com/oggyb/intro-match/internal/models"
	"github.com/oggyb/intro-match/internal/repository"
)

type seedOptions struct {
	companies int
	agents    int
	swipes    int
	likeRatio float64
	seed      int64
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Wipe the database and fill it with random companies, agents and swipes",
		Long: "seed resets every table, creates random company and agent profiles and then\n" +
			"replays random like/pass decisions through the swipe engine, so the match\n" +
			"ledger ends up exactly as real traffic would leave it.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.companies, "companies", "c", 20, "number of companies to create")
	cmd.Flags().IntVarP(&opts.agents, "agents", "a", 50, "number of agents to create")
	cmd.Flags().IntVarP(&opts.swipes, "swipes", "s", 300, "number of random decisions to submit")
	cmd.Flags().Float64Var(&opts.likeRatio, "like-ratio", 0.6, "share of decisions that are likes")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 uses the current time)")
	return cmd
}

func runSeed(ctx context.Context, opts *seedOptions) error {
	if opts.companies <= 0 || opts.agents <= 0 {
		return fmt.Errorf("need at least one company and one agent")
	}
	if opts.likeRatio < 0 || opts.likeRatio > 1 {
		return fmt.Errorf("--like-ratio must be within [0,1]")
	}

	cfg := config.New()
	logger.InitFromConfig(cfg)
	defer logger.Close()
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))

	companyIDs, agentIDs, err := db.SeedProfiles(database, r, opts.companies, opts.agents)
	if err != nil {
		return err
	}
	log.Info("profiles seeded", "companies", len(companyIDs), "agents", len(agentIDs), "seed", seed)

	eng := engine.New(repository.NewStore(database), log)

	var matched, replayed int
	for i := 0; i < opts.swipes; i++ {
		company := companyIDs[r.Intn(len(companyIDs))]
		agent := agentIDs[r.Intn(len(agentIDs))]
		actor, target := company, agent
		if r.Intn(2) == 1 {
			actor, target = agent, company
		}
		action := models.ActionPass
		if r.Float64() < opts.likeRatio {
			action = models.ActionLike
		}

		res, err := eng.Decide(ctx, actor, target, action)
		if err != nil {
			return fmt.Errorf("decision %d -> %d: %w", actor, target, err)
		}
		if res.Replayed {
			replayed++
		}
		if res.Changed && res.Matched {
			matched++
		}
	}

	log.Info("seeding completed", "swipes", opts.swipes, "replayed", replayed, "matches", matched)
	return nil
}
