package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create workflows table. Stages, settings and applicability rules
			-- live as JSONB documents; the analytics running means live as
			-- plain columns so they can be recomputed atomically in a single
			-- UPDATE without a read-modify-write from the application.
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				client_id VARCHAR(255) NOT NULL,
				organization_id VARCHAR(255),
				is_default BOOLEAN NOT NULL DEFAULT FALSE,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
				deleted_at TIMESTAMP WITH TIME ZONE,
				deleted_by VARCHAR(255),
				stages JSONB NOT NULL DEFAULT '[]',
				settings JSONB NOT NULL DEFAULT '{}',
				applicable_to JSONB NOT NULL DEFAULT '{}',
				total_usage BIGINT NOT NULL DEFAULT 0,
				average_completion_time DOUBLE PRECISION NOT NULL DEFAULT 0,
				approval_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
				analytics_extra JSONB NOT NULL DEFAULT '{}',
				version INTEGER NOT NULL DEFAULT 1,
				parent_workflow_id UUID,
				created_by VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				last_used_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_client_id ON workflows(client_id);
			CREATE INDEX idx_workflows_parent_id ON workflows(parent_workflow_id);
			CREATE INDEX idx_workflows_is_deleted ON workflows(is_deleted);

			-- Hard constraint backing default exclusivity: at most one
			-- (default, active, not deleted) workflow per client, regardless
			-- of how the application sequences its clear and set writes.
			CREATE UNIQUE INDEX uniq_default_workflow_per_client
				ON workflows(client_id)
				WHERE is_default AND is_active AND NOT is_deleted;
		`,
		2: `
			-- Runtime stage instances polled by the escalation sweeper.
			CREATE TABLE stage_instances (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id),
				content_id VARCHAR(255) NOT NULL,
				client_id VARCHAR(255),
				stage_order INTEGER NOT NULL,
				entered_at BIGINT NOT NULL,
				resolved BOOLEAN NOT NULL DEFAULT FALSE,
				escalated BOOLEAN NOT NULL DEFAULT FALSE,
				reminders_sent INTEGER NOT NULL DEFAULT 0
			);

			CREATE INDEX idx_stage_instances_resolved ON stage_instances(resolved);
			CREATE INDEX idx_stage_instances_workflow_id ON stage_instances(workflow_id);
		`,
	}
}
