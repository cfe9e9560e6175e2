// Package schema defines the Task, Todo and Settings records.
//
// # Overview
//
// The same structs are used for rows read from the record store and for the
// records written to the JSON mirror, so the mirror is a faithful,
// fully-denormalized projection of the store:
//
//	tasks.json
//	[
//	  {
//	    "id": "task_1760000000_9f1c2e4a7b3d5e6f",
//	    "title": "Write report",
//	    "description": null,
//	    "deadline": "2026-10-20",
//	    "completed": false,
//	    "created_at": "2026-10-19T08:30:00.000000Z",
//	    "updated_at": null
//	  }
//	]
//
// `completed` is always a JSON boolean even though the store keeps an integer
// flag.
//
// # Input handling
//
// Inputs are normalized before validation:
//
//	in := schema.TaskInput{Title: "  <b>Plan</b> "}.Normalize()
//	// in.Title == "&lt;b&gt;Plan&lt;/b&gt;"
//	if err := in.Validate(); err != nil {
//	    // errors.Is(err, store.ErrValidation)
//	}
//
// Sanitation (trim + HTML escape) is a data-integrity policy of the store, not
// a security boundary.
package schema
