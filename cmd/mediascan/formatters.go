package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pevans/mediascan"
)

const rule = "----------------------------------------------------------------------------------------------------"

// printJSON prints v as indented JSON
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

// truncate shortens s to width characters, marking the cut with "..."
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// printMediaTable prints media records in human-readable table format
func printMediaTable(media []mediascan.Media) {
	if len(media) == 0 {
		fmt.Println("No media records. Run 'mediascan media seed' to create them from the roster.")
		return
	}

	fmt.Printf("%-6s %-8s %-30s %s\n", "ID", "STATUS", "NAME", "URL")
	fmt.Println(rule)

	for _, m := range media {
		status := "active"
		if !m.Active {
			status = "inactive"
		}
		fmt.Printf("%-6d %-8s %-30s %s\n", m.ID, status, truncate(m.Name, 30), truncate(m.URL, 60))
	}
}

// printArticlesTable prints articles in human-readable table format
func printArticlesTable(list []mediascan.Article, offset int) {
	if len(list) == 0 {
		fmt.Println("No articles to display.")
		return
	}

	fmt.Printf("Showing %d-%d\n\n", offset+1, offset+len(list))

	for _, a := range list {
		fmt.Println(truncate(a.Title, 90))
		fmt.Printf("   Media %d | Inserted: %s | %d words\n",
			a.MediaID,
			a.InsertedAt.Local().Format("2006-01-02 15:04"),
			a.WordCount,
		)
		fmt.Printf("   Sentiments: %s | Ideologies: %s\n",
			strings.Join(a.Sentiments, ", "),
			strings.Join(a.Ideologies, ", "),
		)
		fmt.Printf("   URL: %s\n", a.URL)
		fmt.Printf("   ID: %s\n", a.ID)
		fmt.Println()
	}
}

// printArticle prints one article in detail
func printArticle(a *mediascan.Article) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println(wrapText(a.Title, 80))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("ID:          %s\n", a.ID)
	fmt.Printf("Media:       %d\n", a.MediaID)
	fmt.Printf("URL:         %s\n", a.URL)
	fmt.Printf("Inserted:    %s\n", a.InsertedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Words:       %d (%d characters)\n", a.WordCount, a.Length)
	fmt.Println()

	fmt.Printf("Sentiments:  %s\n", strings.Join(a.Sentiments, ", "))
	fmt.Printf("Ideologies:  %s\n", strings.Join(a.Ideologies, ", "))

	if len(a.CommonWords) > 0 {
		var words []string
		for _, c := range mediascan.SortedCounts(a.CommonWords) {
			words = append(words, fmt.Sprintf("%s (%d)", c.Label, c.Count))
		}
		fmt.Printf("Common:      %s\n", strings.Join(words, ", "))
	}

	if len(a.Entities) > 0 {
		fmt.Println()
		fmt.Println("Entities:")
		for _, label := range sortedKeys(a.Entities) {
			group := a.Entities[label]
			var names []string
			for _, c := range mediascan.SortedCounts(group.Entities) {
				names = append(names, c.Label)
			}
			fmt.Printf("  %-12s %s\n", label, truncate(strings.Join(names, ", "), 80))
		}
	}

	fmt.Println()
	fmt.Println(wrapText(a.Text, 80))
}

// printLabelStats prints label counts as a two column table
func printLabelStats(stats *mediascan.LabelStats) {
	fmt.Printf("%d articles since %s\n", stats.Articles, stats.Since.Local().Format("2006-01-02 15:04"))
	if stats.Articles == 0 {
		return
	}

	for _, section := range []struct {
		title  string
		counts []mediascan.LabelCount
	}{
		{"SENTIMENT", stats.Sentiments},
		{"IDEOLOGY", stats.Ideologies},
	} {
		fmt.Println()
		fmt.Printf("%-30s %s\n", section.title, "COUNT")
		fmt.Println(rule[:40])
		for _, c := range section.counts {
			fmt.Printf("%-30s %d\n", c.Label, c.Count)
		}
	}
}

// wrapText wraps text to a maximum line width
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n")
}
