/*
Package menu holds the menu catalog: an immutable, per-locale graph of USSD screens.

Catalogs are declared in Go with a fluent builder rather than loaded from files:

	b := menu.NewBuilder(domain.LocaleEnglish)

	b.Add("welcome").
		Title("Welcome").
		Option("1", "Start", domain.Menu("main"))

	b.Add("main").
		Title("Main menu").
		Option("1", "Report", domain.Menu("details")).
		Option("0", "Back", domain.Menu("welcome"))

	b.Add("details").
		Title("Describe the problem:").
		Input(domain.Terminal("submit"))

	catalog, err := b.Build()

Validate walks a catalog from its root and reports every edge that points at
neither a node nor a registered action.
*/
package menu
