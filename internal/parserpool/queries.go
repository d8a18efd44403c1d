package parserpool

import "github.com/standardbeagle/codeintel/internal/langs"

// queryByLanguage holds one combined definitions+references tree-sitter
// query per language, emitting the stable capture names spec.md §4.A
// requires (function.definition/.name, method.*, class.*, struct.*,
// interface.*, enum.*, call.expression/.function/.method), plus
// import.declaration/import.path which the Context Extractor uses to
// build Import references and, downstream, Imports edges.
//
// Node-type names are grounded on real tree-sitter grammars as exercised
// by github.com/standardbeagle/lci's internal/parser/parser_language_setup.go.
var queryByLanguage = map[langs.Language]string{
	langs.Go: `
		(function_declaration name: (identifier) @function.name) @function.definition
		(method_declaration name: (field_identifier) @method.name) @method.definition
		(type_declaration (type_spec name: (type_identifier) @struct.name type: (struct_type))) @struct.definition
		(type_declaration (type_spec name: (type_identifier) @interface.name type: (interface_type))) @interface.definition
		(import_spec path: (interpreted_string_literal) @import.path) @import.declaration
		(call_expression function: (identifier) @call.function) @call.expression
		(call_expression function: (selector_expression field: (field_identifier) @call.method)) @call.expression
	`,
	langs.Python: `
		(class_definition
			body: (block
				(function_definition name: (identifier) @method.name) @method.definition))
		(function_definition name: (identifier) @function.name) @function.definition
		(class_definition name: (identifier) @class.name) @class.definition
		(import_statement) @import.declaration
		(import_from_statement) @import.declaration
		(call function: (identifier) @call.function) @call.expression
		(call function: (attribute attribute: (identifier) @call.method)) @call.expression
	`,
	langs.Rust: `
		(impl_item
			body: (declaration_list
				(function_item name: (identifier) @method.name) @method.definition))
		(trait_item
			body: (declaration_list
				(function_item name: (identifier) @method.name) @method.definition))
		(function_item name: (identifier) @function.name) @function.definition
		(struct_item name: (type_identifier) @struct.name) @struct.definition
		(enum_item name: (type_identifier) @enum.name) @enum.definition
		(trait_item name: (type_identifier) @interface.name) @interface.definition
		(use_declaration) @import.declaration
		(call_expression function: (identifier) @call.function) @call.expression
		(call_expression function: (field_expression field: (field_identifier) @call.method)) @call.expression
	`,
	langs.TypeScript: `
		(function_declaration name: (identifier) @function.name) @function.definition
		(method_definition name: (property_identifier) @method.name) @method.definition
		(class_declaration name: (type_identifier) @class.name) @class.definition
		(interface_declaration name: (type_identifier) @interface.name) @interface.definition
		(enum_declaration name: (identifier) @enum.name) @enum.definition
		(import_statement source: (string) @import.path) @import.declaration
		(call_expression function: (identifier) @call.function) @call.expression
		(call_expression function: (member_expression property: (property_identifier) @call.method)) @call.expression
	`,
	langs.JavaScript: `
		(function_declaration name: (identifier) @function.name) @function.definition
		(generator_function_declaration name: (identifier) @function.name) @function.definition
		(method_definition name: (property_identifier) @method.name) @method.definition
		(class_declaration name: (identifier) @class.name) @class.definition
		(import_statement source: (string) @import.path) @import.declaration
		(call_expression function: (identifier) @call.function) @call.expression
		(call_expression function: (member_expression property: (property_identifier) @call.method)) @call.expression
	`,
	langs.Java: `
		(method_declaration name: (identifier) @method.name) @method.definition
		(class_declaration name: (identifier) @class.name) @class.definition
		(record_declaration name: (identifier) @class.name) @class.definition
		(interface_declaration name: (identifier) @interface.name) @interface.definition
		(enum_declaration name: (identifier) @enum.name) @enum.definition
		(import_declaration) @import.declaration
		(method_invocation name: (identifier) @call.method) @call.expression
	`,
	langs.CSharp: `
		(method_declaration name: (identifier) @method.name) @method.definition
		(class_declaration name: (identifier) @class.name) @class.definition
		(interface_declaration name: (identifier) @interface.name) @interface.definition
		(struct_declaration name: (identifier) @struct.name) @struct.definition
		(enum_declaration name: (identifier) @enum.name) @enum.definition
		(using_directive) @import.declaration
		(invocation_expression function: (identifier) @call.function) @call.expression
		(invocation_expression function: (member_access_expression name: (identifier) @call.method)) @call.expression
	`,
	langs.Cpp: `
		(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function.definition
		(function_definition declarator: (function_declarator declarator: (field_identifier) @method.name)) @method.definition
		(class_specifier name: (type_identifier) @class.name) @class.definition
		(struct_specifier name: (type_identifier) @struct.name) @struct.definition
		(enum_specifier name: (type_identifier) @enum.name) @enum.definition
		(preproc_include) @import.declaration
		(call_expression function: (identifier) @call.function) @call.expression
		(call_expression function: (field_expression field: (field_identifier) @call.method)) @call.expression
	`,
}
