package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"bookworld/internal/browse"
	"bookworld/internal/catalog"
	"bookworld/internal/readinglist"
)

func printSection(w io.Writer, title string, books []catalog.Book) {
	fmt.Fprintf(w, "%s\n", title)
	if len(books) == 0 {
		fmt.Fprintln(w, "  (nothing right now)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, b := range books {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", b.WorkID(), b.Title, authors(b.AuthorNames))
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printBrowse(w io.Writer, st browse.State) {
	switch {
	case st.Phase == browse.Error:
		fmt.Fprintf(w, "Search failed: %v\n", st.Err)
		return
	case st.DefaultView:
		printSection(w, "Trending", st.Results)
		return
	}

	printSection(w, fmt.Sprintf("Showing %d of %d", len(st.Results), st.Total), st.Results)
	if st.HasMore {
		fmt.Fprintf(w, "More results available, try --pages %d\n", st.Page+1)
	}
}

func printBook(w io.Writer, b catalog.Book) {
	fmt.Fprintf(w, "%s\n", b.Title)
	fmt.Fprintf(w, "by %s\n", authors(b.AuthorNames))
	if b.FirstPublishYear != nil {
		fmt.Fprintf(w, "First published %d\n", *b.FirstPublishYear)
	}
	if b.Description != "" {
		fmt.Fprintf(w, "\n%s\n", b.Description)
	}
	if len(b.Subjects) > 0 {
		fmt.Fprintf(w, "\nSubjects: %s\n", strings.Join(b.Subjects, ", "))
	}
	if a := b.AuthorDetails; a != nil && a.Bio != "" {
		fmt.Fprintf(w, "\nAbout %s: %s\n", a.Name, a.Bio)
	}
	if len(b.ExternalLinks) > 0 {
		fmt.Fprintln(w)
		for _, name := range slices.Sorted(maps.Keys(b.ExternalLinks)) {
			fmt.Fprintf(w, "%s: %s\n", name, b.ExternalLinks[name])
		}
	}
}

// printList prints entries grouped by status, newest first. A non-empty only restricts the
// output to one status.
func printList(w io.Writer, entries map[string]readinglist.Entry, only readinglist.Status) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Your list is empty.")
		return
	}

	type row struct {
		id string
		e  readinglist.Entry
	}
	byStatus := make(map[readinglist.Status][]row)
	for id, e := range entries {
		byStatus[e.Status] = append(byStatus[e.Status], row{id, e})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, st := range readinglist.Statuses {
		rows := byStatus[st]
		if len(rows) == 0 || (only != "" && only != st) {
			continue
		}
		slices.SortFunc(rows, func(a, b row) int { return b.e.AddedDate.Compare(a.e.AddedDate) })
		fmt.Fprintf(tw, "%s (%d)\n", st, len(rows))
		for _, r := range rows {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.id, r.e.Book.Title, authors(r.e.Book.AuthorName), stars(r.e.Rating))
		}
	}
	tw.Flush()
}

func authors(names []string) string {
	if len(names) == 0 {
		return "Unknown Author"
	}
	return strings.Join(names, ", ")
}

func stars(rating *int) string {
	if rating == nil || *rating < 1 {
		return ""
	}
	return strings.Repeat("*", *rating)
}
