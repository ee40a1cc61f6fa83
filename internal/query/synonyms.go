package query

// UI Synonym Dictionary for Query Expansion
//
// Accessible names on real pages mix languages and phrasing: the button an
// agent wants to click may be labeled "Login", "Sign in", or "Anmelden"
// depending on the locale and the author. Expanding a name filter with the
// other members of its synonym group raises recall across these variants
// without any learned model.
//
// Groups are bidirectional: every member maps to all other members of its
// group. The vocabulary is English plus German, matching the pages this
// engine is deployed against.
var synonymGroups = [][]string{
	{"login", "sign in", "anmelden", "einloggen", "log in"},
	{"logout", "sign out", "abmelden", "log out"},
	{"submit", "send", "absenden", "senden", "ok", "confirm"},
	{"cancel", "abbrechen", "close", "schließen"},
	{"save", "speichern", "apply"},
	{"delete", "remove", "löschen", "entfernen"},
	{"edit", "bearbeiten", "modify", "ändern"},
	{"search", "suchen", "find", "finden"},
	{"next", "weiter", "continue", "fortfahren"},
	{"back", "zurück", "previous"},
	{"home", "startseite", "main"},
	{"settings", "einstellungen", "preferences", "options"},
	{"help", "hilfe", "support"},
	{"profile", "profil", "account", "konto"},
	{"password", "passwort", "kennwort"},
	{"email", "e-mail", "mail"},
	{"username", "benutzername", "user"},
}

// synonyms maps each word to the other members of its group.
var synonyms = func() map[string][]string {
	m := make(map[string][]string)
	for _, group := range synonymGroups {
		for _, word := range group {
			others := make([]string, 0, len(group)-1)
			for _, other := range group {
				if other != word {
					others = append(others, other)
				}
			}
			m[word] = others
		}
	}
	return m
}()

// Synonyms returns the synonym group members for a lowercased term, or nil
// if the term has no group.
func Synonyms(term string) []string {
	return synonyms[term]
}

// expandPatterns appends the synonyms of each pattern to the list. The
// input patterns are expected to be lowercased already.
func expandPatterns(patterns []string) []string {
	expanded := patterns
	for _, p := range patterns {
		expanded = append(expanded, synonyms[p]...)
	}
	return expanded
}
