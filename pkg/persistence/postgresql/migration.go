package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create workflow_definitions table
			-- TEXT rather than JSONB: field declaration order must survive storage.
			CREATE TABLE workflow_definitions (
				name VARCHAR(255) PRIMARY KEY,
				definition TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_workflow_definitions_updated_at ON workflow_definitions(updated_at);
		`,
	}
}
