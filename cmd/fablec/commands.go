package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/frictionalfables/fable/client"
	"github.com/frictionalfables/fable/faults"
	"github.com/frictionalfables/fable/models"
	"github.com/frictionalfables/fable/portal"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail("could not render output: %s", err)
	}
	fmt.Println(string(data))
}

func failUser(err error) {
	fail("%s", faults.UserMessage(err))
}

func handlePing(p *portal.Portal) {
	// Connect already pinged; say so explicitly.
	fmt.Printf("%s gateway reachable, decision: %s\n", color.GreenString("OK"), p.Decision())
}

func handleBooks(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 1 {
		fail("books requires a subcommand: list, assets, add, update, delete")
	}
	books := p.Books()

	switch args[0] {
	case "list":
		featured, err := books.Featured().Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(featured)
	case "assets":
		if len(args) < 2 {
			fail("books assets requires a book id")
		}
		assets, err := books.Assets(args[1]).Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(assets)
	case "add", "update":
		if len(args) < 3 {
			fail("books %s requires an id and a title", args[0])
		}
		book := client.BookPayload{ID: args[1], Title: args[2]}
		if len(args) > 3 {
			book.Summary = args[3]
		}
		var err error
		if args[0] == "add" {
			err = books.Add(ctx, book)
		} else {
			err = books.Update(ctx, book)
		}
		if err != nil {
			failUser(err)
		}
		fmt.Printf("%s book %s\n", color.GreenString(args[0]+"ed"), book.ID)
	case "delete":
		if len(args) < 2 {
			fail("books delete requires a book id")
		}
		if err := books.Delete(ctx, args[1]); err != nil {
			failUser(err)
		}
		fmt.Printf("%s book %s\n", color.GreenString("deleted"), args[1])
	default:
		fail("unknown books subcommand %q", args[0])
	}
}

func handleBlog(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 1 {
		fail("blog requires a subcommand: list, get, add, update, delete")
	}
	blog := p.Blog()

	switch args[0] {
	case "list":
		posts, err := blog.All().Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(posts)
	case "get":
		if len(args) < 2 {
			fail("blog get requires a post id")
		}
		post, err := blog.Post(args[1]).Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(post)
	case "add", "update":
		if len(args) < 3 {
			fail("blog %s requires an id and a title", args[0])
		}
		post := client.BlogPostPayload{ID: args[1], Title: args[2]}
		if len(args) > 3 {
			post.Description = args[3]
		}
		var err error
		if args[0] == "add" {
			err = blog.Add(ctx, post)
		} else {
			err = blog.Update(ctx, post)
		}
		if err != nil {
			failUser(err)
		}
		fmt.Printf("%s blog post %s\n", color.GreenString("saved"), post.ID)
	case "delete":
		if len(args) < 2 {
			fail("blog delete requires a post id")
		}
		if err := blog.Delete(ctx, args[1]); err != nil {
			failUser(err)
		}
		fmt.Printf("%s blog post %s\n", color.GreenString("deleted"), args[1])
	default:
		fail("unknown blog subcommand %q", args[0])
	}
}

func handleNotes(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 1 {
		fail("notes requires a subcommand: list, get, delete")
	}
	notes := p.Notes()

	switch args[0] {
	case "list":
		all, err := notes.All().Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(all)
	case "get":
		if len(args) < 2 {
			fail("notes get requires a note id")
		}
		note, err := notes.Note(args[1]).Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(note)
	case "delete":
		if len(args) < 2 {
			fail("notes delete requires a note id")
		}
		if err := notes.Delete(ctx, args[1]); err != nil {
			failUser(err)
		}
		fmt.Printf("%s note %s\n", color.GreenString("deleted"), args[1])
	default:
		fail("unknown notes subcommand %q", args[0])
	}
}

func handleNewComings(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 1 {
		fail("newcomings requires a subcommand: list, get, delete")
	}
	nc := p.NewComings()

	switch args[0] {
	case "list":
		all, err := nc.All().Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(all)
	case "get":
		if len(args) < 2 {
			fail("newcomings get requires an id")
		}
		entry, err := nc.Entry(args[1]).Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(entry)
	case "delete":
		if len(args) < 2 {
			fail("newcomings delete requires an id")
		}
		if err := nc.Delete(ctx, args[1]); err != nil {
			failUser(err)
		}
		fmt.Printf("%s entry %s\n", color.GreenString("deleted"), args[1])
	default:
		fail("unknown newcomings subcommand %q", args[0])
	}
}

func handleForum(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 1 {
		fail("forum requires a subcommand: list, get, post, reply")
	}
	forum := p.Forum()

	switch args[0] {
	case "list":
		threads, err := forum.Threads().Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(threads)
	case "get":
		if len(args) < 2 {
			fail("forum get requires a thread id")
		}
		thread, err := forum.Thread(args[1]).Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(thread)
	case "post":
		if len(args) < 3 {
			fail("forum post requires a title and a body")
		}
		id, err := forum.AddThread(ctx, args[1], strings.Join(args[2:], " "))
		if err != nil {
			failUser(err)
		}
		fmt.Printf("%s thread %s\n", color.GreenString("posted"), id)
	case "reply":
		if len(args) < 3 {
			fail("forum reply requires a thread id and a body")
		}
		if err := forum.AddReply(ctx, args[1], strings.Join(args[2:], " ")); err != nil {
			failUser(err)
		}
		fmt.Printf("%s reply to %s\n", color.GreenString("posted"), args[1])
	default:
		fail("unknown forum subcommand %q", args[0])
	}
}

func handleSuggest(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 1 {
		fail("suggest requires a subcommand: list, add")
	}
	suggestions := p.Suggestions()

	switch args[0] {
	case "list":
		all, err := suggestions.All().Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(all)
	case "add":
		if len(args) < 2 {
			fail("suggest add requires the suggestion text")
		}
		id, err := suggestions.Add(ctx, strings.Join(args[1:], " "))
		if err != nil {
			failUser(err)
		}
		fmt.Printf("%s suggestion %s\n", color.GreenString("submitted"), id)
	default:
		fail("unknown suggest subcommand %q", args[0])
	}
}

func handleRate(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 2 {
		fail("rate requires a book id and a star count")
	}
	stars, err := strconv.Atoi(args[1])
	if err != nil {
		fail("stars must be a number between 1 and 5")
	}
	if err := p.Community().AddRating(ctx, args[0], stars); err != nil {
		failUser(err)
	}

	summary, err := p.Community().AverageRating(args[0]).Get(ctx)
	if err != nil {
		failUser(err)
	}
	fmt.Printf("%s rated %s: now %.2f across %d ratings\n",
		color.GreenString("OK"), args[0], summary.Average, summary.Count)
}

func handleComment(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 2 {
		fail("comment requires a subcommand: list, add, like, delete")
	}
	community := p.Community()

	switch args[0] {
	case "list":
		comments, err := community.Comments(args[1]).Get(ctx)
		if err != nil {
			failUser(err)
		}
		printJSON(comments)
	case "add":
		if len(args) < 3 {
			fail("comment add requires a book id and the text")
		}
		id, err := community.AddComment(ctx, args[1], strings.Join(args[2:], " "))
		if err != nil {
			failUser(err)
		}
		fmt.Printf("%s comment %s\n", color.GreenString("posted"), id)
	case "like":
		if len(args) < 3 {
			fail("comment like requires a book id and a comment id")
		}
		if err := community.LikeComment(ctx, args[1], args[2]); err != nil {
			failUser(err)
		}
		fmt.Printf("%s liked %s\n", color.GreenString("OK"), args[2])
	case "delete":
		if len(args) < 3 {
			fail("comment delete requires a book id and a comment id")
		}
		if err := community.DeleteComment(ctx, args[1], args[2]); err != nil {
			failUser(err)
		}
		fmt.Printf("%s deleted %s\n", color.GreenString("OK"), args[2])
	default:
		fail("unknown comment subcommand %q", args[0])
	}
}

func handleProfile(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 1 {
		fail("profile requires a subcommand: show, save")
	}
	profile := p.Profile()

	switch args[0] {
	case "show":
		me, err := profile.Caller().Get(ctx)
		if err != nil {
			failUser(err)
		}
		if me == nil {
			fmt.Printf("%s no profile yet, run: profile save <name> <email>\n", color.YellowString("!"))
			return
		}
		printJSON(me)
		fmt.Printf("decision: %s\n", p.Decision())
	case "save":
		if len(args) < 3 {
			fail("profile save requires a name and an email")
		}
		update := models.UserProfile{Name: args[1], Email: args[2]}
		if len(args) > 3 {
			update.Bio = strings.Join(args[3:], " ")
		}
		if err := profile.Save(ctx, update); err != nil {
			failUser(err)
		}
		if err := profile.AcknowledgeWelcome(ctx); err != nil {
			logger.Warn("could not record welcome acknowledgment", "error", err)
		}
		fmt.Printf("%s profile saved, decision: %s\n", color.GreenString("OK"), p.Decision())
	default:
		fail("unknown profile subcommand %q", args[0])
	}
}

func handleAdmin(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 1 {
		fail("admin requires a subcommand: status, login, logout")
	}
	admin := p.Admin()

	switch args[0] {
	case "status":
		isAdmin, err := admin.IsAdmin().Get(ctx)
		if err != nil {
			failUser(err)
		}
		if isAdmin {
			fmt.Printf("%s admin session active\n", color.GreenString("OK"))
		} else {
			fmt.Printf("%s not an admin session\n", color.YellowString("!"))
		}
	case "login":
		if len(args) < 2 {
			fail("admin login requires a name")
		}
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fail("could not read password: %s", err)
		}
		if err := admin.Login(ctx, args[1], string(password)); err != nil {
			failUser(err)
		}
		fmt.Printf("%s admin session granted\n", color.GreenString("OK"))
	case "logout":
		if err := admin.Logout(ctx); err != nil {
			logger.Warn("remote admin logout failed, local session revoked anyway", "error", err)
		}
		fmt.Printf("%s admin session revoked\n", color.GreenString("OK"))
	default:
		fail("unknown admin subcommand %q", args[0])
	}
}

func contentTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func handleUpload(ctx context.Context, p *portal.Portal, args []string) {
	if len(args) < 2 {
		fail("upload requires a subcommand: file, cover, logo, author-photo")
	}

	load := func(path string) *client.Blob {
		data, err := os.ReadFile(path)
		if err != nil {
			fail("could not read %s: %s", path, err)
		}
		blob := client.NewBlob(data, filepath.Base(path), contentTypeForPath(path))
		return blob.WithUploadProgress(func(percent int) {
			fmt.Fprintf(os.Stderr, "\r%s %3d%%", color.CyanString("uploading"), percent)
			if percent == 100 {
				fmt.Fprintln(os.Stderr)
			}
		})
	}

	var err error
	switch args[0] {
	case "file":
		if len(args) < 3 {
			fail("upload file requires a book id and a path")
		}
		err = p.Books().UploadFile(ctx, args[1], load(args[2]))
	case "cover":
		if len(args) < 3 {
			fail("upload cover requires a book id and a path")
		}
		err = p.Books().UploadCover(ctx, args[1], load(args[2]))
	case "logo":
		err = p.Site().UploadLogo(ctx, load(args[1]))
	case "author-photo":
		err = p.Site().UploadAuthorPhoto(ctx, load(args[1]))
	default:
		fail("unknown upload subcommand %q", args[0])
	}
	if err != nil {
		failUser(err)
	}
	fmt.Printf("%s upload complete\n", color.GreenString("OK"))
}

func handleWatch(ctx context.Context, p *portal.Portal) {
	fmt.Printf("%s following content events, ctrl-c to stop\n", color.CyanString("watch"))
	if err := p.WatchContent(ctx); err != nil && ctx.Err() == nil {
		failUser(err)
	}
}
