// Command ext2shell is a small interactive REPL over an ext2 image: it
// supports navigating directories and reading file contents, plus a few
// stubs for operations this module's core does not implement.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dgrahm/ext2insp/ext2"
	"github.com/dgrahm/ext2insp/imgsrc"
	log "github.com/sirupsen/logrus"
)

const rootInode = 2

func main() {
	imagePath := flag.String("image", "", "path to an ext2 image (required)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: ext2shell -image path/to.img")
		os.Exit(2)
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	src, err := imgsrc.Open(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open %s: %v\n", *imagePath, err)
		os.Exit(1)
	}
	defer src.Close()

	img, err := ext2.Open(src.Data, src.BaseAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot parse %s: %v\n", *imagePath, err)
		os.Exit(1)
	}

	sh := &shell{img: img, cwd: rootInode}
	sh.run()
}

// shell is the interactive command loop. It never touches the raw inode
// layout directly, only the accessor surface ext2.Image exposes.
type shell struct {
	img *ext2.Image
	cwd uint32
}

func (s *shell) run() {
	reader := bufio.NewScanner(os.Stdin)
	fmt.Print(":> ")
	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line != "" {
			fields := strings.Fields(line)
			cmd, args := fields[0], fields[1:]
			if done := s.dispatch(cmd, args); done {
				return
			}
		}
		fmt.Print(":> ")
	}
}

func (s *shell) dispatch(cmd string, args []string) (done bool) {
	switch cmd {
	case "ls":
		s.ls()
	case "cd":
		s.cd(args)
	case "cat":
		s.cat(args)
	case "mkdir":
		s.mkdir(args)
	case "rm", "mount", "link":
		fmt.Println("not yet implemented")
	case "quit", "exit":
		return true
	default:
		fmt.Printf("unknown command: %s\n", cmd)
	}
	return false
}

func (s *shell) ls() {
	entries, err := s.img.ReadDirInode(s.cwd)
	if err != nil {
		fmt.Printf("ls: %v\n", err)
		return
	}
	for _, e := range entries {
		fmt.Println(e.Name)
	}
}

func (s *shell) cd(args []string) {
	if len(args) == 0 {
		s.cwd = rootInode
		return
	}
	target := args[0]
	entries, err := s.img.ReadDirInode(s.cwd)
	if err != nil {
		fmt.Printf("cd: %v\n", err)
		return
	}
	for _, e := range entries {
		if e.Name != target {
			continue
		}
		in, err := s.img.GetInode(e.Inode)
		if err != nil {
			fmt.Printf("cd: %v\n", err)
			return
		}
		if !in.IsDir() {
			fmt.Printf("cd: not a directory: %s\n", target)
			return
		}
		s.cwd = e.Inode
		return
	}
	fmt.Printf("unable to locate %s, cwd unchanged\n", target)
}

func (s *shell) cat(args []string) {
	if len(args) == 0 {
		fmt.Println("cat: missing operand")
		return
	}
	target := args[0]
	entries, err := s.img.ReadDirInode(s.cwd)
	if err != nil {
		fmt.Printf("cat: %v\n", err)
		return
	}
	for _, e := range entries {
		if e.Name != target {
			continue
		}
		in, err := s.img.GetInode(e.Inode)
		if err != nil {
			fmt.Printf("cat: %s: %v\n", target, err)
			return
		}
		if in.IsDir() {
			fmt.Printf("cat: %s: Is a directory\n", target)
			return
		}
		data, err := s.img.ReadFileInode(e.Inode)
		if err != nil {
			fmt.Printf("cat: %s: %v\n", target, err)
			return
		}
		os.Stdout.Write(data)
		return
	}
	fmt.Printf("cat: %s: No such file or directory\n", target)
}

// mkdir implements only the read-only half of what the original sketch
// computed: it confirms the name is free in the current directory and
// reports the first block group (and inode slot within it) that has room.
// It does not allocate anything; there is no writer behind this core.
func (s *shell) mkdir(args []string) {
	if len(args) == 0 {
		fmt.Println("mkdir: missing operand")
		return
	}
	name := args[0]
	entries, err := s.img.ReadDirInode(s.cwd)
	if err != nil {
		fmt.Printf("mkdir: %v\n", err)
		return
	}
	for _, e := range entries {
		if e.Name == name {
			fmt.Printf("mkdir: %s: File exists\n", name)
			return
		}
	}

	groups := s.img.GroupDescriptors()
	for i, g := range groups {
		if g.FreeInodesCount() == 0 {
			continue
		}
		pos, err := s.img.FirstFreeInode(i)
		if err != nil {
			fmt.Printf("mkdir: %v\n", err)
			return
		}
		if pos < 0 {
			continue
		}
		fmt.Printf("mkdir: found free inode slot %d in group %d; directory creation not implemented\n", pos, i)
		return
	}
	fmt.Println("mkdir: no free inodes")
}
