package main

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestParseArgs(t *testing.T) {
	convey.Convey("Given command line arguments", t, func() {
		convey.Convey("Then key=value pairs become lowercased args", func() {
			got, err := parseArgs([]string{"Faction=stormcast eternals", "formation=", "note=a=b"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldResemble, map[string]string{
				"faction":   "stormcast eternals",
				"formation": "",
				"note":      "a=b",
			})
		})

		convey.Convey("Then bare words are rejected", func() {
			_, err := parseArgs([]string{"stormcast"})
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRootCommand(t *testing.T) {
	convey.Convey("The root command exposes every subcommand", t, func() {
		names := map[string]bool{}
		for _, c := range rootCmd.Commands() {
			names[c.Name()] = true
		}
		convey.So(names["serve"], convey.ShouldBeTrue)
		convey.So(names["query"], convey.ShouldBeTrue)
		convey.So(names["refresh"], convey.ShouldBeTrue)
		convey.So(names["version"], convey.ShouldBeTrue)
	})
}
