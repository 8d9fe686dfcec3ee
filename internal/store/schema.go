package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the SQL sink and its queries.
const (
	tableSequence     = "global_sequence"
	TableTransactions = "transactions"
	TableDecisions    = "decisions"
	TableActions      = "actions"
	TableSessions     = "class_sessions"
	TableStudents     = "students"
	TableBatches      = "batches"
)

// Every record table starts with the same pair: a global sequence number
// for cross-table ordering and the record's own id.
func recordColumns(extra ...*schema.Column) []*schema.Column {
	return append([]*schema.Column{
		{Name: "seq", Type: field.TypeInt64},
		{Name: "id", Type: field.TypeString, Unique: true},
	}, extra...)
}

var (
	sequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	sequenceTable = &schema.Table{
		Name:       tableSequence,
		Columns:    sequenceColumns,
		PrimaryKey: []*schema.Column{sequenceColumns[0]},
	}

	transactionColumns = recordColumns(
		&schema.Column{Name: "kind", Type: field.TypeString},
		&schema.Column{Name: "time", Type: field.TypeTime},
		&schema.Column{Name: "student_id", Type: field.TypeString},
		&schema.Column{Name: "tutor_id", Type: field.TypeString},
		&schema.Column{Name: "session_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "curriculum_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "unit_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "section_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "problem_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "step_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "action", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "outcome", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "duration_sec", Type: field.TypeFloat64},
		&schema.Column{Name: "kc_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "kc", Type: field.TypeJSON, Nullable: true},
		&schema.Column{Name: "plt", Type: field.TypeFloat64},
		&schema.Column{Name: "plt1", Type: field.TypeFloat64},
		&schema.Column{Name: "hints_used", Type: field.TypeInt},
		&schema.Column{Name: "hints_avail", Type: field.TypeInt},
		&schema.Column{Name: "attempt", Type: field.TypeInt},
	)
	transactionsTable = &schema.Table{
		Name:       TableTransactions,
		Columns:    transactionColumns,
		PrimaryKey: []*schema.Column{transactionColumns[0]},
		Indexes: []*schema.Index{
			{Name: "transaction_student_id_time", Columns: []*schema.Column{transactionColumns[4], transactionColumns[3]}},
		},
	}

	decisionColumns = recordColumns(
		&schema.Column{Name: "student_id", Type: field.TypeString},
		&schema.Column{Name: "time", Type: field.TypeTime},
		&schema.Column{Name: "choice", Type: field.TypeString},
		&schema.Column{Name: "options", Type: field.TypeJSON},
		&schema.Column{Name: "problem_id", Type: field.TypeString},
		&schema.Column{Name: "step_id", Type: field.TypeString},
		&schema.Column{Name: "kc_id", Type: field.TypeString},
		&schema.Column{Name: "kc", Type: field.TypeJSON},
		&schema.Column{Name: "learner_knowledge", Type: field.TypeFloat64},
		&schema.Column{Name: "attempt", Type: field.TypeInt},
		&schema.Column{Name: "hints_avail", Type: field.TypeInt},
		&schema.Column{Name: "hints_used", Type: field.TypeInt},
		&schema.Column{Name: "off_task", Type: field.TypeBool},
		&schema.Column{Name: "self_efficacy", Type: field.TypeFloat64, Nullable: true},
	)
	decisionsTable = &schema.Table{
		Name:       TableDecisions,
		Columns:    decisionColumns,
		PrimaryKey: []*schema.Column{decisionColumns[0]},
		Indexes: []*schema.Index{
			{Name: "decision_student_id", Columns: []*schema.Column{decisionColumns[2]}},
		},
	}

	actionColumns = recordColumns(
		&schema.Column{Name: "student_id", Type: field.TypeString},
		&schema.Column{Name: "decision_id", Type: field.TypeString},
		&schema.Column{Name: "time", Type: field.TypeTime},
		&schema.Column{Name: "kind", Type: field.TypeString},
		&schema.Column{Name: "duration_sec", Type: field.TypeFloat64},
		&schema.Column{Name: "correct", Type: field.TypeBool},
	)
	actionsTable = &schema.Table{
		Name:       TableActions,
		Columns:    actionColumns,
		PrimaryKey: []*schema.Column{actionColumns[0]},
		Indexes: []*schema.Index{
			{Name: "action_decision_id", Columns: []*schema.Column{actionColumns[3]}},
		},
	}

	sessionColumns = recordColumns(
		&schema.Column{Name: "start_time", Type: field.TypeTime},
		&schema.Column{Name: "end_time", Type: field.TypeTime},
		&schema.Column{Name: "student_ids", Type: field.TypeJSON},
	)
	sessionsTable = &schema.Table{
		Name:       TableSessions,
		Columns:    sessionColumns,
		PrimaryKey: []*schema.Column{sessionColumns[0]},
	}

	studentColumns = recordColumns(
		&schema.Column{Name: "cognition", Type: field.TypeString},
		&schema.Column{Name: "decider", Type: field.TypeString},
		&schema.Column{Name: "spec", Type: field.TypeJSON},
		&schema.Column{Name: "created_at", Type: field.TypeTime},
	)
	studentsTable = &schema.Table{
		Name:       TableStudents,
		Columns:    studentColumns,
		PrimaryKey: []*schema.Column{studentColumns[0]},
	}

	batchColumns = recordColumns(
		&schema.Column{Name: "run_time", Type: field.TypeTime},
		&schema.Column{Name: "description", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "student_ids", Type: field.TypeJSON},
	)
	batchesTable = &schema.Table{
		Name:       TableBatches,
		Columns:    batchColumns,
		PrimaryKey: []*schema.Column{batchColumns[0]},
	}

	// Tables lists every table the SQL store migrates.
	Tables = []*schema.Table{
		sequenceTable,
		transactionsTable,
		decisionsTable,
		actionsTable,
		sessionsTable,
		studentsTable,
		batchesTable,
	}
)

// columnNames returns the names of cols in declaration order.
func columnNames(cols []*schema.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
