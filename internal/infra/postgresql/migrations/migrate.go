package migrations

import (
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrate creates the engine-owned tables. Contacts, quotes, webinars and
// coaching cases are owned by the CRM schema and never migrated here.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_outreach_rules",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.RuleModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.RuleModel{})
			},
		},
		{
			ID: "000002_create_outreach_queue_items",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.QueueItemModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_queue_items_rule_status ON outreach_queue_items (rule_id, status)`,
					`CREATE INDEX IF NOT EXISTS idx_queue_items_contact_rule ON outreach_queue_items (contact_id, rule_id) WHERE status = 'PENDING'`,
					`CREATE INDEX IF NOT EXISTS idx_queue_items_dedup_key ON outreach_queue_items (dedup_key) WHERE status = 'PENDING'`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.QueueItemModel{})
			},
		},
		{
			ID: "000003_create_contact_rule_states",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ContactRuleStateModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_contact_rule_states_rule ON contact_rule_states (rule_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ContactRuleStateModel{})
			},
		},
		{
			ID: "000004_create_outreach_jobs",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.JobStatusModel{}); err != nil {
					return err
				}
				// At most one RUNNING job system-wide; the conditional insert
				// against this index is the concurrency guard.
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_outreach_jobs_single_running ON outreach_jobs (status) WHERE status = 'RUNNING'`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.JobStatusModel{})
			},
		},
		{
			ID: "000005_create_outreach_audit_log",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.AuditEntryModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_log_rule_sent ON outreach_audit_log (rule_id, sent_at DESC)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.AuditEntryModel{})
			},
		},
	})

	return m.Migrate()
}
