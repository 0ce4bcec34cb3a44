package mcp

// ToolDefinition describes a callable tool
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	ReadOnly    bool           `json:"readOnly,omitempty"`
	Destructive bool           `json:"destructive,omitempty"`
}

func emptySchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func dosagesSchema() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "Load of the exercise (each field up to 10 characters)",
		"properties": map[string]any{
			"reps":      map[string]any{"type": "string", "description": "Repetitions, e.g. 10回"},
			"sets":      map[string]any{"type": "string", "description": "Sets, e.g. 3セット"},
			"frequency": map[string]any{"type": "string", "description": "Frequency, e.g. 毎日"},
		},
	}
}

func precautionsSchema() map[string]any {
	return map[string]any{
		"type":        "array",
		"description": "Caution lines (up to 5, each up to 50 characters). Replaces existing precautions.",
		"items":       map[string]any{"type": "string"},
	}
}

func fileInputProperties(subject string) map[string]any {
	return map[string]any{
		"path": map[string]any{
			"type":        "string",
			"description": "Local path of the " + subject,
		},
		"file_name": map[string]any{
			"type":        "string",
			"description": "File name used for type detection when content_base64 is given",
		},
		"content_base64": map[string]any{
			"type":        "string",
			"description": "Base64 encoded " + subject + " (alternative to path)",
		},
	}
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	uploadProps := fileInputProperties("image file")
	uploadProps["assign_to"] = map[string]any{
		"type":        "string",
		"description": "Item ID whose image is replaced by the uploaded image",
	}

	return []ToolDefinition{
		// Document
		{
			Name:        "get_document",
			Description: "Get the current project document, selection and readiness",
			InputSchema: emptySchema(),
			ReadOnly:    true,
		},
		{
			Name:        "add_item",
			Description: "Append an exercise card (max 10 cards). Text is stripped of markup and clamped.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "Card title (up to 20 characters, defaults to 新しい運動)",
					},
					"image_source": map[string]any{
						"type":        "string",
						"description": "Library image ID (list_images) or sample ID (list_samples)",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Exercise instructions (up to 200 characters)",
					},
					"dosages":     dosagesSchema(),
					"precautions": precautionsSchema(),
					"select": map[string]any{
						"type":        "boolean",
						"description": "Select the new card",
					},
				},
			},
		},
		{
			Name:        "update_item",
			Description: "Update fields of an exercise card. Omitted fields are left unchanged.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Item ID",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "Card title (up to 20 characters)",
					},
					"image_source": map[string]any{
						"type":        "string",
						"description": "Library image ID, sample ID (list_samples), or empty to clear",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Exercise instructions (up to 200 characters)",
					},
					"dosages":     dosagesSchema(),
					"precautions": precautionsSchema(),
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "delete_item",
			Description: "Delete an exercise card and renumber the rest",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Item ID",
					},
				},
				"required": []string{"id"},
			},
			Destructive: true,
		},
		{
			Name:        "reorder_items",
			Description: "Reorder the cards. ids must list every item ID exactly once.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"ids": map[string]any{
						"type":        "array",
						"description": "Item IDs in the new order",
						"items":       map[string]any{"type": "string"},
					},
				},
				"required": []string{"ids"},
			},
		},

		// Settings
		{
			Name:        "set_layout",
			Description: "Set the grid layout of the printed sheet",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"layout": map[string]any{
						"type":        "string",
						"description": "Column layout",
						"enum":        []string{"grid1", "grid2", "grid3", "grid4"},
					},
				},
				"required": []string{"layout"},
			},
		},
		{
			Name:        "set_theme_color",
			Description: "Set the accent colour of the sheet",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"color": map[string]any{
						"type":        "string",
						"description": "Hex colour, e.g. #3b82f6",
					},
				},
				"required": []string{"color"},
			},
		},
		{
			Name:        "set_project_title",
			Description: "Rename the project (up to 20 characters)",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "Project title",
					},
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        "select_item",
			Description: "Select a card for editing. An empty id clears the selection.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Item ID",
					},
				},
			},
		},

		// Import / export
		{
			Name:        "export_json",
			Description: "Export the project as JSON without images",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"output_path": map[string]any{
						"type":        "string",
						"description": "File or directory to write to (omit to return the content)",
					},
				},
			},
			ReadOnly: true,
		},
		{
			Name:        "export_zip",
			Description: "Export the project and its images as a ZIP archive",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"output_path": map[string]any{
						"type":        "string",
						"description": "File or directory to write to (omit to return base64 content)",
					},
				},
			},
			ReadOnly: true,
		},
		{
			Name:        "import_project",
			Description: "Import a JSON or ZIP export, replacing the current project",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": fileInputProperties("export file"),
			},
			Destructive: true,
		},
		{
			Name:        "list_templates",
			Description: "List the built-in project templates",
			InputSchema: emptySchema(),
			ReadOnly:    true,
		},
		{
			Name:        "apply_template",
			Description: "Replace the current project with a built-in template",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Template ID from list_templates",
					},
				},
				"required": []string{"id"},
			},
			Destructive: true,
		},

		// Images
		{
			Name:        "upload_image",
			Description: "Store a JPEG, PNG, GIF or WebP image in the library (max 20MB)",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": uploadProps,
			},
		},
		{
			Name:        "list_images",
			Description: "List library images, newest first",
			InputSchema: emptySchema(),
			ReadOnly:    true,
		},
		{
			Name:        "list_samples",
			Description: "List the built-in sample images and their IDs",
			InputSchema: emptySchema(),
			ReadOnly:    true,
		},
		{
			Name:        "delete_image",
			Description: "Delete a library image and clear every card that shows it",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Image ID",
					},
				},
				"required": []string{"id"},
			},
			Destructive: true,
		},
		{
			Name:        "delete_project",
			Description: "Delete the saved project and start a fresh one. Library images are kept.",
			InputSchema: emptySchema(),
			Destructive: true,
		},
	}
}
