package banner

import "fmt"

const banner = `
██████╗  █████╗ ██╗██████╗  ██████╗██╗  ██╗ █████╗ ████████╗
██╔══██╗██╔══██╗██║██╔══██╗██╔════╝██║  ██║██╔══██╗╚══██╔══╝
██████╔╝███████║██║██████╔╝██║     ███████║███████║   ██║
██╔═══╝ ██╔══██║██║██╔══██╗██║     ██╔══██║██╔══██║   ██║
██║     ██║  ██║██║██║  ██║╚██████╗██║  ██║██║  ██║   ██║
╚═╝     ╚═╝  ╚═╝╚═╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝
`

// Print writes the startup banner with the effective runtime settings.
func Print(addr, dbPath, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/conversations - Find or create the conversation for a user pair")
	fmt.Println("POST /v1/conversations/{id}/messages - Send a message")
	fmt.Println("GET  /v1/subscribe/messages?conversation=<id> - Live message stream (SSE)")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/conversations' -d '{\"user_a\":\"alice\",\"user_b\":\"bob\"}'\n", addr)
	fmt.Printf("curl -N 'http://localhost%s/v1/subscribe/presence'\n", addr)
}
