package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'fuel_event_type') THEN
			CREATE TYPE fuel_event_type AS ENUM ('REPLENISHMENT', 'CONSUMPTION');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'incident_status') THEN
			CREATE TYPE incident_status AS ENUM ('OPEN', 'IN_PROGRESS', 'RESOLVED');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'incident_severity') THEN
			CREATE TYPE incident_severity AS ENUM ('LOW', 'MEDIUM', 'HIGH');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		resource_id UUID NOT NULL,
		operator_id UUID NOT NULL,
		site VARCHAR(255) NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_assignments_dates CHECK (end_date IS NULL OR end_date >= start_date)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_resource_id ON assignments (resource_id);`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_operator_id ON assignments (operator_id);`,
	// The exclusivity invariant lives here: at most one active assignment per
	// resource and per operator, regardless of how many closed ones exist.
	// Concurrent check-then-insert races land on these indexes.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_assignments_active_resource
		ON assignments (resource_id) WHERE is_active;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_assignments_active_operator
		ON assignments (operator_id) WHERE is_active;`,
	`CREATE TABLE IF NOT EXISTS fuel_events (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		event_type fuel_event_type NOT NULL,
		quantity DOUBLE PRECISION NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		note TEXT,
		resource_id UUID,
		operator_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_fuel_events_quantity CHECK (quantity > 0),
		CONSTRAINT chk_fuel_events_resource CHECK (event_type <> 'CONSUMPTION' OR resource_id IS NOT NULL)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_fuel_events_occurred_at ON fuel_events (occurred_at);`,
	`CREATE INDEX IF NOT EXISTS idx_fuel_events_event_type ON fuel_events (event_type);`,
	`CREATE INDEX IF NOT EXISTS idx_fuel_events_resource_id ON fuel_events (resource_id);`,
	`CREATE INDEX IF NOT EXISTS idx_fuel_events_operator_id ON fuel_events (operator_id);`,
	// Ledger rows are immutable; corrections are new offsetting events.
	`CREATE OR REPLACE FUNCTION reject_fuel_event_mutation()
	RETURNS TRIGGER AS $$
	BEGIN
		RAISE EXCEPTION 'fuel_events is append-only';
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_fuel_events_append_only') THEN
			CREATE TRIGGER trg_fuel_events_append_only
				BEFORE UPDATE OR DELETE ON fuel_events
				FOR EACH ROW
				EXECUTE PROCEDURE reject_fuel_event_mutation();
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS daily_reports (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		operator_id UUID NOT NULL,
		resource_id UUID NOT NULL,
		report_date DATE NOT NULL,
		remaining_liters DOUBLE PRECISION NOT NULL,
		image_ref TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_daily_reports_operator_date
		ON daily_reports (operator_id, report_date);`,
	`CREATE INDEX IF NOT EXISTS idx_daily_reports_resource_id ON daily_reports (resource_id);`,
	`CREATE TABLE IF NOT EXISTS incidents (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		resource_id UUID NOT NULL,
		reported_by UUID NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		severity incident_severity NOT NULL,
		eta_label VARCHAR(100),
		cause VARCHAR(100),
		actions_taken TEXT,
		photo_ref TEXT,
		status incident_status NOT NULL DEFAULT 'OPEN',
		resolved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_resource_id ON incidents (resource_id);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_reported_by ON incidents (reported_by);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_status ON incidents (status);`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_assignments_updated_at') THEN
			CREATE TRIGGER trg_assignments_updated_at
				BEFORE UPDATE ON assignments
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_incidents_updated_at') THEN
			CREATE TRIGGER trg_incidents_updated_at
				BEFORE UPDATE ON incidents
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
