package associationdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/chainsafe/agent-associations/pkg/associationstore"
	mghelper "github.com/chainsafe/agent-associations/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating association_submissions table...")
		if err := mghelper.CreateSchema(ctx, db, &associationstore.SubmissionDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &associationstore.SubmissionDao{}, "chain_id,status")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping association_submissions table...")
		return mghelper.DropTables(ctx, db, &associationstore.SubmissionDao{})
	})
}
