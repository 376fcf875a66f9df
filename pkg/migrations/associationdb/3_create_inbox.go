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
		log.Println("creating association_inbox table...")
		if err := mghelper.CreateSchema(ctx, db, &associationstore.InboxMessageDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &associationstore.InboxMessageDao{}, "recipient_did,consumed", "handshake_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping association_inbox table...")
		return mghelper.DropTables(ctx, db, &associationstore.InboxMessageDao{})
	})
}
