package cli

import (
	"errors"
	"fmt"
	"strings"

	"narratia/internal/client"
	"narratia/internal/pagination"
)

func (a *App) signup(_ []string) error {
	username, err := readLine(a.in, a.out, "Username: ")
	if err != nil {
		return err
	}
	email, err := readLine(a.in, a.out, "Email: ")
	if err != nil {
		return err
	}
	password, err := a.readSecret("Password: ")
	if err != nil {
		return err
	}
	if username == "" || email == "" || password == "" {
		return errors.New("all fields are required")
	}

	resp, err := a.api.Signup(username, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s. Welcome, %s!\n", resp.Message, resp.User.Username)
	return nil
}

func (a *App) login(_ []string) error {
	login, err := readLine(a.in, a.out, "Username or email: ")
	if err != nil {
		return err
	}
	password, err := a.readSecret("Password: ")
	if err != nil {
		return err
	}
	if login == "" || password == "" {
		return errors.New("username or email and password are required")
	}

	resp, err := a.api.Login(login, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s. Welcome back, %s!\n", resp.Message, resp.User.Username)
	return nil
}

func (a *App) logout(_ []string) error {
	a.api.Logout()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) whoami(_ []string) error {
	user := a.api.Session()
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> (id %s)\n", user.Username, user.Email, user.ID)
	return nil
}

func (a *App) help(_ []string) error {
	fmt.Fprintln(a.out, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(a.out, "  %s\n", cmd.usage)
	}
	return nil
}

func (a *App) feed(args []string) error {
	page, err := pageArg(args)
	if err != nil {
		return err
	}
	resp, err := a.api.ListStories(page, a.pageSize)
	if err != nil {
		return err
	}
	a.printPage(resp, page)
	return nil
}

func (a *App) mine(args []string) error {
	page, err := pageArg(args)
	if err != nil {
		return err
	}
	resp, err := a.api.ListUserStories(a.api.Session().ID, page, a.pageSize)
	if err != nil {
		return err
	}
	a.printPage(resp, page)
	return nil
}

func (a *App) printPage(resp *client.StoryPage, page int) {
	totalPages := pagination.Page{Number: page, Limit: a.pageSize}.TotalPages(resp.TotalStories)
	if resp.TotalStories == 0 {
		fmt.Fprintln(a.out, "No stories yet.")
		return
	}

	for _, s := range resp.Stories {
		fmt.Fprintf(a.out, "\n[%s] %s\n", s.Genre, s.ID)
		fmt.Fprintf(a.out, "Prompt: %s\n", s.Prompt)
		fmt.Fprintf(a.out, "%s\n", s.GeneratedStory)
		fmt.Fprintf(a.out, "Created %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if len(resp.Stories) == 0 {
		fmt.Fprintln(a.out, "Nothing on this page.")
	}
	fmt.Fprintf(a.out, "\nPage %d of %d\n", page, totalPages)
}

func (a *App) makeStory(_ []string) error {
	prompt, err := readLine(a.in, a.out, "Prompt: ")
	if err != nil {
		return err
	}
	if prompt == "" {
		return errors.New("please enter a prompt")
	}

	if genres, err := a.api.Genres(); err == nil {
		fmt.Fprintf(a.out, "Genres: %s\n", strings.Join(genres, ", "))
	}
	genre, err := readLine(a.in, a.out, "Genre (blank for none): ")
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Generating...")
	text, err := a.api.GenerateStory(prompt, genre)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%s\n\n", text)

	ok, err := a.confirm("Publish this story?")
	if err != nil || !ok {
		return err
	}
	story, err := a.api.CreateStory(prompt, text, genre)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Story published (id %s).\n", story.ID)
	return nil
}

func (a *App) edit(args []string) error {
	id, err := idArg(args, "edit <id>")
	if err != nil {
		return err
	}

	prompt, err := readLine(a.in, a.out, "New prompt: ")
	if err != nil {
		return err
	}
	text, err := readMultiline(a.in, a.out, "New story text")
	if err != nil {
		return err
	}
	genreInput, err := readLine(a.in, a.out, "New genre (blank keeps the current one): ")
	if err != nil {
		return err
	}

	var genre *string
	if genreInput != "" {
		genre = &genreInput
	}
	story, err := a.api.UpdateStory(id, prompt, text, genre)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Story %s updated.\n", story.ID)
	return nil
}

func (a *App) deleteStory(args []string) error {
	id, err := idArg(args, "delete <id>")
	if err != nil {
		return err
	}

	ok, err := a.confirm("Delete story " + id + "?")
	if err != nil || !ok {
		return err
	}
	if err := a.api.DeleteStory(id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Story deleted.")
	return nil
}
