// Package entities defines the GitLab entity groups served by glmcp.
//
// Every group contributes a read-only browse tool and a mutating manage
// tool. Both are canonical discriminated unions keyed on "action"; the
// registry layer filters, annotates and flattens them per session.
package entities

import (
	"glmcp/internal/registry"
	"glmcp/internal/schema"
)

// Feature gate variables of the entity groups.
const (
	GateMilestones    = "USE_MILESTONE"
	GateLabels        = "USE_LABELS"
	GateIssues        = "USE_ISSUES"
	GateMergeRequests = "USE_MRS"
	GateWiki          = "USE_WIKI"
)

// group describes one entity group.
type group struct {
	entity     string
	gate       string
	browse     string
	browseDesc string
	browseDef  func() *schema.Schema
	manage     string
	manageDesc string
	manageDef  func() *schema.Schema
}

func (g group) registry(backend Backend) registry.EntityRegistry {
	gate := &registry.FeatureGate{EnvVar: g.gate, Default: true}
	return &registry.StaticRegistry{
		GroupName: g.entity,
		Defs: []registry.EnhancedToolDefinition{
			{
				ToolDefinition: registry.ToolDefinition{
					Name:        g.browse,
					Description: g.browseDesc,
					InputSchema: g.browseDef(),
				},
				Handler: handler(backend, g.entity, g.browse),
				Gate:    gate,
			},
			{
				ToolDefinition: registry.ToolDefinition{
					Name:        g.manage,
					Description: g.manageDesc,
					InputSchema: g.manageDef(),
				},
				Handler: handler(backend, g.entity, g.manage),
				Gate:    gate,
			},
		},
		ReadOnly: []string{g.browse},
	}
}

var groups = []group{
	{
		entity:     "milestones",
		gate:       GateMilestones,
		browse:     "browse_milestones",
		browseDesc: "List, inspect and track progress of project or group milestones.",
		browseDef:  browseMilestonesSchema,
		manage:     "manage_milestone",
		manageDesc: "Create, update, delete or promote milestones.",
		manageDef:  manageMilestoneSchema,
	},
	{
		entity:     "labels",
		gate:       GateLabels,
		browse:     "browse_labels",
		browseDesc: "List and inspect project or group labels.",
		browseDef:  browseLabelsSchema,
		manage:     "manage_label",
		manageDesc: "Create, update, delete or subscribe to labels.",
		manageDef:  manageLabelSchema,
	},
	{
		entity:     "issues",
		gate:       GateIssues,
		browse:     "browse_issues",
		browseDesc: "Search and inspect issues and their notes.",
		browseDef:  browseIssuesSchema,
		manage:     "manage_issue",
		manageDesc: "Create, update, close, reopen or delete issues.",
		manageDef:  manageIssueSchema,
	},
	{
		entity:     "merge_requests",
		gate:       GateMergeRequests,
		browse:     "browse_merge_requests",
		browseDesc: "Search merge requests and read their changes and approvals.",
		browseDef:  browseMergeRequestsSchema,
		manage:     "manage_merge_request",
		manageDesc: "Create, update, approve or merge merge requests.",
		manageDef:  manageMergeRequestSchema,
	},
	{
		entity:     "wiki",
		gate:       GateWiki,
		browse:     "browse_wiki",
		browseDesc: "List and read project or group wiki pages.",
		browseDef:  browseWikiSchema,
		manage:     "manage_wiki",
		manageDesc: "Create, update or delete wiki pages.",
		manageDef:  manageWikiSchema,
	},
}

// All returns the registries of every entity group in display order.
func All(backend Backend) []registry.EntityRegistry {
	if backend == nil {
		backend = EchoBackend{}
	}
	regs := make([]registry.EntityRegistry, len(groups))
	for i, g := range groups {
		regs[i] = g.registry(backend)
	}
	return regs
}

// Gates lists the feature gate variables in display order.
func Gates() []string {
	gates := make([]string, len(groups))
	for i, g := range groups {
		gates[i] = g.gate
	}
	return gates
}

func browseMilestonesSchema() *schema.Schema {
	return union(
		action("list", "List milestones",
			concat(namespace(), []param{
				enum("state", "Filter by state", "active", "closed"),
				str("search", "Return milestones whose title or description matches"),
			}, paging())...),
		action("get", "Get a single milestone",
			concat(namespace(), []param{integer("milestone_id", "Milestone ID").req()})...),
		action("issues", "List issues assigned to a milestone",
			concat(namespace(), []param{integer("milestone_id", "Milestone ID").req()}, paging())...),
		action("merge_requests", "List merge requests assigned to a milestone",
			concat(namespace(), []param{integer("milestone_id", "Milestone ID").req()}, paging())...),
		action("burndown", "Get burndown chart events of a milestone",
			concat(namespace(), []param{integer("milestone_id", "Milestone ID").req()})...),
	)
}

func manageMilestoneSchema() *schema.Schema {
	return union(
		action("create", "Create a new milestone",
			concat(namespace(), []param{
				str("title", "Title of the milestone").req(),
				str("description", "Description of the milestone"),
				str("start_date", "Start date (YYYY-MM-DD)"),
				str("due_date", "Due date (YYYY-MM-DD)"),
			})...),
		action("update", "Update an existing milestone",
			concat(namespace(), []param{
				integer("milestone_id", "Milestone ID").req(),
				str("title", "New title"),
				str("description", "New description"),
				str("start_date", "Start date (YYYY-MM-DD)"),
				str("due_date", "Due date (YYYY-MM-DD)"),
				enum("state_event", "Close or reactivate the milestone", "close", "activate"),
			})...),
		action("delete", "Delete a milestone permanently",
			concat(namespace(), []param{integer("milestone_id", "Milestone ID").req()})...),
		action("promote", "Promote a project milestone to a group milestone",
			projectID(),
			integer("milestone_id", "Milestone ID").req()),
	)
}

func browseLabelsSchema() *schema.Schema {
	return union(
		action("list", "List labels",
			concat(namespace(), []param{
				str("search", "Return labels whose name matches"),
				boolean("with_counts", "Include issue and merge request counts"),
				boolean("include_ancestor_groups", "Include labels of ancestor groups"),
			}, paging())...),
		action("get", "Get a single label",
			concat(namespace(), []param{str("label_id", "Label ID or name").req()})...),
	)
}

func manageLabelSchema() *schema.Schema {
	return union(
		action("create", "Create a new label",
			concat(namespace(), []param{
				str("name", "Name of the label").req(),
				str("color", "Color in #RRGGBB notation or a CSS color name").req(),
				str("description", "Description of the label"),
				integer("priority", "Priority of the label, lower is higher"),
			})...),
		action("update", "Update an existing label",
			concat(namespace(), []param{
				str("label_id", "Label ID or name").req(),
				str("new_name", "New name of the label"),
				str("color", "Color in #RRGGBB notation or a CSS color name"),
				str("description", "New description"),
				integer("priority", "Priority of the label, lower is higher"),
			})...),
		action("delete", "Delete a label",
			concat(namespace(), []param{str("label_id", "Label ID or name").req()})...),
		action("subscribe", "Subscribe the current user to a label",
			concat(namespace(), []param{str("label_id", "Label ID or name").req()})...),
		action("unsubscribe", "Unsubscribe the current user from a label",
			concat(namespace(), []param{str("label_id", "Label ID or name").req()})...),
	)
}

func browseIssuesSchema() *schema.Schema {
	return union(
		action("list", "List issues",
			concat(namespace(), []param{
				enum("state", "Filter by state", "opened", "closed", "all"),
				strList("labels", "Only issues carrying all of these labels"),
				str("milestone", "Milestone title"),
				str("assignee_username", "Assignee username"),
				str("search", "Search in title and description"),
			}, paging())...),
		action("get", "Get a single issue",
			projectID(),
			integer("issue_iid", "Internal ID of the issue").req()),
		action("notes", "List the notes of an issue",
			concat([]param{projectID(), integer("issue_iid", "Internal ID of the issue").req()}, paging())...),
	)
}

func manageIssueSchema() *schema.Schema {
	return union(
		action("create", "Create a new issue",
			projectID(),
			str("title", "Title of the issue").req(),
			str("description", "Description of the issue, Markdown allowed"),
			strList("labels", "Labels to apply"),
			integer("milestone_id", "Milestone to assign"),
			strList("assignee_ids", "Users to assign"),
			boolean("confidential", "Create the issue as confidential")),
		action("update", "Update an existing issue",
			projectID(),
			integer("issue_iid", "Internal ID of the issue").req(),
			str("title", "New title"),
			str("description", "New description, Markdown allowed"),
			strList("labels", "Labels replacing the current ones"),
			integer("milestone_id", "Milestone to assign")),
		action("close", "Close an issue",
			projectID(),
			integer("issue_iid", "Internal ID of the issue").req()),
		action("reopen", "Reopen a closed issue",
			projectID(),
			integer("issue_iid", "Internal ID of the issue").req()),
		action("delete", "Delete an issue permanently",
			projectID(),
			integer("issue_iid", "Internal ID of the issue").req()),
	)
}

func browseMergeRequestsSchema() *schema.Schema {
	return union(
		action("list", "List merge requests",
			concat(namespace(), []param{
				enum("state", "Filter by state", "opened", "closed", "locked", "merged", "all"),
				str("source_branch", "Source branch name"),
				str("target_branch", "Target branch name"),
				strList("labels", "Only merge requests carrying all of these labels"),
				str("search", "Search in title and description"),
			}, paging())...),
		action("get", "Get a single merge request",
			projectID(),
			integer("merge_request_iid", "Internal ID of the merge request").req()),
		action("diffs", "List the file changes of a merge request",
			concat([]param{projectID(), integer("merge_request_iid", "Internal ID of the merge request").req()}, paging())...),
		action("approvals", "Get the approval state of a merge request",
			projectID(),
			integer("merge_request_iid", "Internal ID of the merge request").req()),
	)
}

func manageMergeRequestSchema() *schema.Schema {
	return union(
		action("create", "Open a new merge request",
			projectID(),
			str("source_branch", "Source branch name").req(),
			str("target_branch", "Target branch name").req(),
			str("title", "Title of the merge request").req(),
			str("description", "Description of the merge request, Markdown allowed"),
			strList("labels", "Labels to apply"),
			boolean("remove_source_branch", "Remove the source branch after merge")),
		action("update", "Update an open merge request",
			projectID(),
			integer("merge_request_iid", "Internal ID of the merge request").req(),
			str("title", "New title"),
			str("description", "New description, Markdown allowed"),
			str("target_branch", "New target branch"),
			enum("state_event", "Close or reopen the merge request", "close", "reopen")),
		action("approve", "Approve a merge request",
			projectID(),
			integer("merge_request_iid", "Internal ID of the merge request").req(),
			str("sha", "HEAD commit the approval applies to")),
		action("merge", "Merge a merge request",
			projectID(),
			integer("merge_request_iid", "Internal ID of the merge request").req(),
			boolean("squash", "Squash commits on merge"),
			str("merge_commit_message", "Custom merge commit message"),
			boolean("should_remove_source_branch", "Remove the source branch after merge")),
	)
}

func browseWikiSchema() *schema.Schema {
	return union(
		action("list", "List wiki pages",
			concat(namespace(), []param{
				boolean("with_content", "Include page content"),
			})...),
		action("get", "Get a single wiki page",
			concat(namespace(), []param{
				str("slug", "URL-encoded slug of the page").req(),
				str("version", "Page version SHA"),
			})...),
	)
}

func manageWikiSchema() *schema.Schema {
	return union(
		action("create", "Create a wiki page",
			concat(namespace(), []param{
				str("title", "Title of the page").req(),
				str("content", "Content of the page").req(),
				enum("format", "Markup format of the content", "markdown", "rdoc", "asciidoc", "org"),
			})...),
		action("update", "Update a wiki page",
			concat(namespace(), []param{
				str("slug", "URL-encoded slug of the page").req(),
				str("title", "New title"),
				str("content", "New content"),
				enum("format", "Markup format of the content", "markdown", "rdoc", "asciidoc", "org"),
			})...),
		action("delete", "Delete a wiki page",
			concat(namespace(), []param{str("slug", "URL-encoded slug of the page").req()})...),
	)
}
