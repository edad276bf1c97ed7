package extract

// OptionsForProfile maps an output profile name to its extraction field
// set: "minimal" extracts links and metadata only, "standard" adds asset
// references and structured data, and "full" additionally retains visible
// text and the rendered HTML. Unknown names fall back to standard.
func OptionsForProfile(profile string) IncludeOptions {
	switch profile {
	case "minimal":
		return IncludeOptions{}
	case "full":
		return IncludeOptions{
			Assets:         true,
			Text:           true,
			HTML:           true,
			StructuredData: true,
		}
	default:
		return IncludeOptions{
			Assets:         true,
			StructuredData: true,
		}
	}
}
