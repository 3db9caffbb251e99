package postgresql

import (
	"context"
	"fmt"
)

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE legal_requests (
				id UUID PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				request_type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				previous_status VARCHAR(50),
				audience VARCHAR(20) NOT NULL,
				is_foreside_review_required BOOLEAN NOT NULL DEFAULT false,
				submitter VARCHAR(255) NOT NULL,
				submitted_at TIMESTAMP WITH TIME ZONE,
				intake JSONB,
				assigned_attorney VARCHAR(255),
				attorney_assigned JSONB,
				legal_review JSONB,
				compliance_review JSONB,
				closeout_started_at TIMESTAMP WITH TIME ZONE,
				closeout JSONB,
				finra_completed JSONB,
				cancellation JSONB,
				hold JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_legal_requests_status ON legal_requests(status);
			CREATE INDEX idx_legal_requests_submitter ON legal_requests(submitter);
			CREATE INDEX idx_legal_requests_request_type ON legal_requests(request_type);
			CREATE INDEX idx_legal_requests_created_at ON legal_requests(created_at);
		`,
	}
}

// migrate applies pending schema versions inside a transaction each.
func (p *Persistence) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	all := migrations()

	for version := 1; version <= len(all); version++ {
		var applied bool

		err = p.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", version, err)
		}

		if applied {
			continue
		}

		tx, err := p.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", version, err)
		}

		_, err = tx.ExecContext(ctx, all[version])
		if err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
		if err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}

		err = tx.Commit()
		if err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}

		p.logger.Info("applied migration", "version", version)
	}

	return nil
}
