/*
Package content defines the typed values that flow between pipeline steps.

Every value carries a discoverable Kind and a TypeName. Structured records and lists also carry
the schema or element Type that validation is performed against:

	v := content.ListOf(content.NewText("the"), content.NewText("quick"))
	content.ListType(content.TextType).Accepts(v) // true

Domain packages declare their own structured variants by implementing Value with KindRecord and
a package-qualified TypeName, e.g. "openapi.FunctionDetails".
*/
package content
