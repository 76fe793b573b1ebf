package main

import (
	"github.com/alanhabib/elmify-backend-sub000/cmd"
)

func main() {
	cmd.Execute()
}
