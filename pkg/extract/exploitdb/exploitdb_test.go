package exploitdb_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MaineK00n/exploitgpt/pkg/extract"
	"github.com/MaineK00n/exploitgpt/pkg/extract/exploitdb"
	"github.com/MaineK00n/exploitgpt/pkg/types"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCollect_Exploits(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, exploitdb.ExploitsIndex), []byte(`id,file,description,date_published,author,type,platform,port,date_added,date_updated,verified,codes,tags
50592,exploits/java/remote/50592.py,"Apache Log4j2 2.14.1 - Information Disclosure",2021-12-14,leonjza,remote,java,,2021-12-14,2021-12-14,0,CVE-2021-44228,
1,exploits/windows/remote/1.c,"Missing File",2003-03-23,kralor,remote,windows,80,2003-03-23,2003-03-23,1,OSVDB-4467,
42315,exploits/windows/remote/42315.py,"Microsoft Windows 7/2008 R2 - 'EternalBlue' SMB Remote Code Execution (MS17-010)",2017-07-11,sleepya,remote,windows,,2017-07-11,2017-07-11,1,CVE-2017-0144;MS17-010,
2,../outside.txt,"Outside Checkout",2003-03-24,kralor,remote,windows,80,2003-03-24,2003-03-24,1,,
3,/etc/hostname,"Absolute Path",2003-03-25,kralor,remote,linux,80,2003-03-25,2003-03-25,1,,
`))
	writeFile(t, filepath.Join(filepath.Dir(root), "outside.txt"), []byte("outside\n"))
	writeFile(t, filepath.Join(root, "exploits", "java", "remote", "50592.py"), []byte("import requests\n"))
	writeFile(t, filepath.Join(root, "exploits", "windows", "remote", "42315.py"), []byte("# caf\xe9\n"))

	got, stats, err := extract.Collect(exploitdb.Extractor{Root: root, Kind: types.ExploitKindExploit}, exploitdb.Index(filepath.Join(root, exploitdb.ExploitsIndex)))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if diff := cmp.Diff(extract.Stats{Processed: 2, Errors: 3}, stats); diff != "" {
		t.Errorf("Collect(). stats (-expected +got):\n%s", diff)
	}

	want := []types.ExploitRecord{
		{
			ID:          "50592",
			Kind:        types.ExploitKindExploit,
			Name:        "Apache Log4j2 2.14.1 - Information Disclosure",
			Description: "Apache Log4j2 2.14.1 - Information Disclosure",
			Date:        "2021-12-14",
			Author:      "leonjza",
			Platform:    "java",
			Type:        "remote",
			Codes:       "CVE-2021-44228",
			Content:     "import requests\n",
			Source:      "exploit-db",
			Language:    "python",
		},
		{
			ID:          "42315",
			Kind:        types.ExploitKindExploit,
			Name:        "Microsoft Windows 7/2008 R2 - 'EternalBlue' SMB Remote Code Execution (MS17-010)",
			Description: "Microsoft Windows 7/2008 R2 - 'EternalBlue' SMB Remote Code Execution (MS17-010)",
			Date:        "2017-07-11",
			Author:      "sleepya",
			Platform:    "windows",
			Type:        "remote",
			Codes:       "CVE-2017-0144;MS17-010",
			Content:     "# café\n",
			Source:      "exploit-db",
			Language:    "python",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Collect(). (-expected +got):\n%s", diff)
	}
}

func TestCollect_Shellcodes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, exploitdb.ShellcodesIndex), []byte(`id,file,description,date,author,type,platform,size
13241,shellcodes/linux_x86/13241.c,"Linux/x86 - execve(/bin/sh) Shellcode (25 bytes)",2009-01-01,kernel_panik,shellcode,Linux_x86,25
13242,shellcodes/windows_x86/13242.c,"Windows/x86 - MessageBox Shellcode",2009-01-01,someone,shellcode,Windows_x86,100
13243,shellcodes/linux_x86-64/13243.asm,"Linux/x64 - Bind Shell Shellcode",2010-01-01,another,shellcode,Linux_x86-64,80
`))
	writeFile(t, filepath.Join(root, "shellcodes", "linux_x86", "13241.c"), []byte("char sc[] = \"\\x31\\xc0\";\n"))
	writeFile(t, filepath.Join(root, "shellcodes", "windows_x86", "13242.c"), []byte("/* win */\n"))
	writeFile(t, filepath.Join(root, "shellcodes", "linux_x86-64", "13243.asm"), []byte("xor rax, rax\n"))

	tests := []struct {
		name     string
		opts     []exploitdb.IndexOption
		limit    int
		wantIDs  []string
		wantLang []string
	}{
		{
			name:     "all",
			wantIDs:  []string{"13241", "13242", "13243"},
			wantLang: []string{"c", "c", "asm"},
		},
		{
			name:     "platform filter ignores case",
			opts:     []exploitdb.IndexOption{exploitdb.WithPlatform("LINUX")},
			wantIDs:  []string{"13241", "13243"},
			wantLang: []string{"c", "asm"},
		},
		{
			name:     "limit",
			limit:    1,
			wantIDs:  []string{"13241"},
			wantLang: []string{"c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := extract.Collect(exploitdb.Extractor{Root: root, Kind: types.ExploitKindShellcode}, exploitdb.Index(filepath.Join(root, exploitdb.ShellcodesIndex), tt.opts...), extract.WithLimit(tt.limit))
			if err != nil {
				t.Fatalf("Collect() error = %v", err)
			}
			var ids, langs []string
			for _, r := range got {
				if r.Kind != types.ExploitKindShellcode || r.Date == "" || r.Content == "" {
					t.Errorf("unexpected record: %+v", r)
				}
				ids = append(ids, r.ID)
				langs = append(langs, r.Language)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("Collect(). ids (-expected +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantLang, langs); diff != "" {
				t.Errorf("Collect(). languages (-expected +got):\n%s", diff)
			}
		})
	}
}

func TestIndex_Missing(t *testing.T) {
	root := t.TempDir()
	if _, _, err := extract.Collect(exploitdb.Extractor{Root: root}, exploitdb.Index(filepath.Join(root, exploitdb.ExploitsIndex))); err == nil {
		t.Error("Collect() expected error for missing index")
	}
}

func TestIndex_BadHeader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, exploitdb.ExploitsIndex), []byte("name,path\nfoo,bar\n"))
	if _, _, err := extract.Collect(exploitdb.Extractor{Root: root}, exploitdb.Index(filepath.Join(root, exploitdb.ExploitsIndex))); err == nil {
		t.Error("Collect() expected error for index without id and file columns")
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{file: "exploits/linux/local/1.c", want: "c"},
		{file: "exploits/php/webapps/2.PHP", want: "php"},
		{file: "exploits/multiple/remote/3.rb", want: "ruby"},
		{file: "exploits/hardware/remote/4.xml", want: "xml"},
		{file: "exploits/windows/dos/5", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			if got := exploitdb.Language(tt.file); got != tt.want {
				t.Errorf("Language(). expected: %q, actual: %q", tt.want, got)
			}
		})
	}
}
